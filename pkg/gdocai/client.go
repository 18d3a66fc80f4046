package gdocai

import (
	"context"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// processFunc sends content to a processor and returns the parsed document
type processFunc func(ctx context.Context, content []byte, mimeType, processorID string) (*documentaipb.Document, error)

// ProcessDocument sends raw bytes of the given MIME type to a Document AI
// processor and returns the Document proto from the response
func ProcessDocument(ctx context.Context, content []byte, mimeType, processorID string, cfg *Config) (*documentaipb.Document, error) {
	if err := cfg.validate(processorID); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)

	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	credentials := cfg.CredentialsFile
	if credentials == "" {
		credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	// Build the resource name of the processor
	name := fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		cfg.ProjectID, cfg.Location, processorID,
	)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	if resp.GetDocument() == nil {
		return nil, fmt.Errorf("processor %s returned no document", processorID)
	}

	return resp.Document, nil
}

// processWith binds ProcessDocument to cfg
func processWith(cfg *Config) processFunc {
	return func(ctx context.Context, content []byte, mimeType, processorID string) (*documentaipb.Document, error) {
		return ProcessDocument(ctx, content, mimeType, processorID, cfg)
	}
}
