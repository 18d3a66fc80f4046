// Package gdocai runs OCR and table extraction through Google Document AI.
//
// Two processors are used:
//
// - An OCR processor reads rendered page images. Engine converts its
// response into hOCR lines and words and from there into ocr.Tokens, so it
// can stand in for Tesseract behind the ocr.Locator.
// - A Form Parser processor reads the whole PDF. TableExtractor turns the
// tables it reports into table.Tables, one per detected table, with the
// 0-based page index taken from the response.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - OCR and/or Form Parser processors in the configured location
// - Authentication via CredentialsFile or the GOOGLE_APPLICATION_CREDENTIALS
// environment variable
//
// Online processing accepts a limited number of pages per request (15 for
// the Form Parser), so TableExtractor is meant for short drawing sets.
package gdocai

import "fmt"

// Config identifies the Document AI processors to use
type Config struct {
	ProjectID       string
	Location        string // e.g. "us" or "eu"
	OCRProcessorID  string
	FormProcessorID string
	CredentialsFile string // falls back to GOOGLE_APPLICATION_CREDENTIALS
	DumpDir         string // when set, every raw response is saved here as JSON
}

// DefaultConfig returns a config for the "us" location
func DefaultConfig() *Config {
	return &Config{Location: "us"}
}

// validate checks that the fields needed for processorID are set
func (c *Config) validate(processorID string) error {
	if c == nil {
		return fmt.Errorf("no Document AI configuration")
	}
	switch {
	case c.ProjectID == "":
		return fmt.Errorf("project id is required")
	case c.Location == "":
		return fmt.Errorf("location is required")
	case processorID == "":
		return fmt.Errorf("processor id is required")
	}
	return nil
}
