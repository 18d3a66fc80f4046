// asmxl is a command-line tool that cuts assembly drawings out of a PDF and
// pairs them with their part-list tables in an Excel workbook.
//
// Every page whose text contains the target phrase is rendered and read with
// OCR. The second token containing "part" is taken as the part list label,
// and everything above its top edge is saved as page_<N>.png. Tables that
// contain "Item No." are extracted from the same PDF, and each drawing is
// written next to its table on its own sheet of output.xlsx.
//
// Configuration:
//
// All settings are optional and can be given in a YAML file. Flags override
// the file:
//
//	target_phrase: "Assembly Drawing & Part List"
//	label_keyword: "part"
//	label_occurrence: 2
//	table_marker: "Item No."
//	render_dpi: 72
//	ocr_timeout: 60s
//	on_page_error: skip
//	pairing: page
//	strict_pairing: false
//	image_gap_columns: 0
//	ocr_engine: tesseract
//	table_extractor: tabula
//	tesseract:
//	  languages: [eng]
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  ocr_processor_id: "your-ocr-processor-id"
//	  form_processor_id: "your-form-parser-id"
//	  credentials_file: ""
//	  dump_dir: ""
//
// Usage:
//
//	asmxl -pdf drawings.pdf -output-dir out [options]
//
// Required flags:
//
//	-pdf string         Path to the input PDF file
//	-output-dir string  Directory for page_<N>.png and output.xlsx
//
// Options:
//
//	-config string         Path to the YAML configuration file
//	-phrase string         Target phrase marking drawing pages
//	-ocr string            OCR engine: tesseract or documentai
//	-tables string         Table extractor: tabula or documentai
//	-pairing string        Pairing mode: page or order
//	-on-page-error string  Page failure policy: skip or abort
//	-dpi float             Render resolution
//	-review string         Path to save a review PDF of the crops
//	-overwrite             Replace an existing output.xlsx
//	-debug                 Log every OCR token and show OCR text in the review PDF
//
// Authentication:
//
// The documentai engine and extractor use credentials_file or the
// GOOGLE_APPLICATION_CREDENTIALS environment variable.
//
// Example:
//
//	asmxl -pdf assembly.pdf -output-dir out
//	asmxl -config asmxl.yml -pdf assembly.pdf -output-dir out -ocr documentai -review out/review.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gardar/asmxl/pkg/gdocai"
	"github.com/gardar/asmxl/pkg/ocr"
	"github.com/gardar/asmxl/pkg/ocr/tesseract"
	"github.com/gardar/asmxl/pkg/pipeline"
	"github.com/gardar/asmxl/pkg/table"
)

type yamlConfig struct {
	TargetPhrase    string        `yaml:"target_phrase"`
	LabelKeyword    string        `yaml:"label_keyword"`
	LabelOccurrence int           `yaml:"label_occurrence"`
	TableMarker     string        `yaml:"table_marker"`
	RenderDPI       float64       `yaml:"render_dpi"`
	OCRTimeout      time.Duration `yaml:"ocr_timeout"`
	OnPageError     string        `yaml:"on_page_error"`
	Pairing         string        `yaml:"pairing"`
	StrictPairing   bool          `yaml:"strict_pairing"`
	ImageGapColumns int           `yaml:"image_gap_columns"`
	OCREngine       string        `yaml:"ocr_engine"`
	TableExtractor  string        `yaml:"table_extractor"`
	Tesseract       struct {
		Languages []string `yaml:"languages"`
	} `yaml:"tesseract"`
	DocumentAI struct {
		ProjectID       string `yaml:"project_id"`
		Location        string `yaml:"location"`
		OCRProcessorID  string `yaml:"ocr_processor_id"`
		FormProcessorID string `yaml:"form_processor_id"`
		CredentialsFile string `yaml:"credentials_file"`
		DumpDir         string `yaml:"dump_dir"`
	} `yaml:"documentai"`
}

// settings is everything main needs after merging defaults, file and flags
type settings struct {
	pipeline  pipeline.Config
	ocr       string
	tables    string
	languages []string
	docai     *gdocai.Config
}

func defaultSettings() settings {
	return settings{
		pipeline:  pipeline.DefaultConfig(),
		ocr:       "tesseract",
		tables:    "tabula",
		languages: []string{"eng"},
		docai:     gdocai.DefaultConfig(),
	}
}

// loadConfig reads a YAML file on top of s; unset keys keep their value
func loadConfig(path string, s *settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return err
	}

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	p := &s.pipeline
	setString(&p.TargetPhrase, yc.TargetPhrase)
	setString(&p.Keyword, yc.LabelKeyword)
	setString(&p.TableMarker, yc.TableMarker)
	if yc.LabelOccurrence != 0 {
		p.Occurrence = yc.LabelOccurrence
	}
	if yc.RenderDPI != 0 {
		p.RenderDPI = yc.RenderDPI
	}
	if yc.OCRTimeout != 0 {
		p.OCRTimeout = yc.OCRTimeout
	}
	if yc.OnPageError != "" {
		p.OnPageError = pipeline.PageErrorPolicy(yc.OnPageError)
	}
	if yc.Pairing != "" {
		p.Pairing = pipeline.PairingMode(yc.Pairing)
	}
	p.StrictPairing = yc.StrictPairing
	p.ImageGapColumns = yc.ImageGapColumns

	setString(&s.ocr, yc.OCREngine)
	setString(&s.tables, yc.TableExtractor)
	if len(yc.Tesseract.Languages) > 0 {
		s.languages = yc.Tesseract.Languages
	}

	d := s.docai
	setString(&d.ProjectID, yc.DocumentAI.ProjectID)
	setString(&d.Location, yc.DocumentAI.Location)
	setString(&d.OCRProcessorID, yc.DocumentAI.OCRProcessorID)
	setString(&d.FormProcessorID, yc.DocumentAI.FormProcessorID)
	setString(&d.CredentialsFile, yc.DocumentAI.CredentialsFile)
	setString(&d.DumpDir, yc.DocumentAI.DumpDir)
	return nil
}

func newEngine(s settings) (ocr.Engine, error) {
	switch s.ocr {
	case "tesseract":
		return tesseract.New(s.languages...), nil
	case "documentai":
		return gdocai.NewEngine(s.docai), nil
	}
	return nil, fmt.Errorf("unknown OCR engine %q (want tesseract or documentai)", s.ocr)
}

func newExtractor(s settings) (table.Extractor, error) {
	switch s.tables {
	case "tabula":
		return table.NewTabulaExtractor(), nil
	case "documentai":
		return gdocai.NewTableExtractor(s.docai), nil
	}
	return nil, fmt.Errorf("unknown table extractor %q (want tabula or documentai)", s.tables)
}

func main() {
	// Required flags.
	pdfPath := flag.String("pdf", "", "Path to the input PDF file (required)")
	outputDir := flag.String("output-dir", "", "Directory for the cropped images and output.xlsx (required)")

	configPath := flag.String("config", "", "Path to the config YAML file")
	phrase := flag.String("phrase", "", "Target phrase marking drawing pages")
	ocrEngine := flag.String("ocr", "", "OCR engine: tesseract or documentai")
	extractor := flag.String("tables", "", "Table extractor: tabula or documentai")
	pairing := flag.String("pairing", "", "Pairing mode: page or order")
	onPageError := flag.String("on-page-error", "", "Page failure policy: skip or abort")
	dpi := flag.Float64("dpi", 0, "Render resolution in DPI (default 72)")
	reviewPath := flag.String("review", "", "Path to save a review PDF of the crops")
	overwrite := flag.Bool("overwrite", false, "Replace an existing output.xlsx")
	debug := flag.Bool("debug", false, "Log every OCR token and show OCR text in the review PDF")

	flag.Parse()

	if *pdfPath == "" || *outputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: -pdf and -output-dir flags are required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := defaultSettings()
	if *configPath != "" {
		if err := loadConfig(*configPath, &s); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Flags override the config file
	cfg := &s.pipeline
	cfg.OutputDir = *outputDir
	cfg.ReviewPath = *reviewPath
	cfg.Debug = *debug
	if *phrase != "" {
		cfg.TargetPhrase = *phrase
	}
	if *pairing != "" {
		cfg.Pairing = pipeline.PairingMode(*pairing)
	}
	if *onPageError != "" {
		cfg.OnPageError = pipeline.PageErrorPolicy(*onPageError)
	}
	if *dpi != 0 {
		cfg.RenderDPI = *dpi
	}
	if *ocrEngine != "" {
		s.ocr = *ocrEngine
	}
	if *extractor != "" {
		s.tables = *extractor
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	workbook := filepath.Join(*outputDir, pipeline.WorkbookName)
	if _, err := os.Stat(workbook); err == nil && !*overwrite {
		log.Fatalf("%s already exists (use -overwrite to replace it)", workbook)
	}

	engine, err := newEngine(s)
	if err != nil {
		log.Fatalf("%v", err)
	}
	tables, err := newExtractor(s)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, pipeline.Sources{Path: *pdfPath, Engine: engine, Tables: tables}, *cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("Done: %d drawings, %d part lists, %d sheets\n", len(res.Drawings), len(res.Tables), len(res.Pairs))
	if len(res.Unpaired) > 0 {
		fmt.Printf("%d drawings had no part list on their page (see warnings above)\n", len(res.Unpaired))
	}
}
