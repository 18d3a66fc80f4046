package document

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gen2brain/go-fitz"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a configuration directory in the user's home.
	model.ConfigPath = "disable"
}

// PDF implements Document on top of MuPDF (go-fitz), which supplies both the
// page text and the page rasters. The file is validated with pdfcpu first so
// that a broken file is reported once, as an *OpenError.
//
// When MuPDF cannot extract the text of a page, ledongthuc/pdf is tried
// instead. That reader is opened on first use, so a file it cannot parse
// still opens as long as MuPDF can repair it.
type PDF struct {
	path   string
	raster *fitz.Document
	dpi    float64

	fallbackOnce sync.Once
	fallbackErr  error
	file         io.Closer
	text         *lpdf.Reader
}

// Open validates and opens the PDF at path
func Open(path string, opts Options) (*PDF, error) {
	if err := validate(path); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	raster, err := fitz.New(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: fmt.Errorf("failed to open with MuPDF: %w", err)}
	}

	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	return &PDF{path: path, raster: raster, dpi: dpi}, nil
}

// validate runs pdfcpu's relaxed validation, which accepts the minor
// deviations common in CAD exports but rejects unreadable files
func validate(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, conf)
}

// Path returns the file the document was opened from
func (d *PDF) Path() string { return d.path }

// PageCount returns the number of pages
func (d *PDF) PageCount() int { return d.raster.NumPage() }

// PageText returns the text of the page at index. Words placed by separate
// text operators come back space-separated, as MuPDF lays them out.
func (d *PDF) PageText(index int) (string, error) {
	if err := d.checkIndex(index); err != nil {
		return "", err
	}
	text, err := d.raster.Text(index)
	if err == nil {
		return text, nil
	}
	fallback, ferr := d.fallbackText(index)
	if ferr != nil {
		return "", fmt.Errorf("page %d: failed to extract text: %w", index+1, errors.Join(err, ferr))
	}
	return fallback, nil
}

func (d *PDF) fallbackText(index int) (string, error) {
	d.fallbackOnce.Do(func() {
		d.file, d.text, d.fallbackErr = lpdf.Open(d.path)
	})
	if d.fallbackErr != nil {
		return "", d.fallbackErr
	}
	page := d.text.Page(index + 1)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d has no page object", index+1)
	}
	return page.GetPlainText(nil)
}

// RenderPage rasterizes the page at index at the configured DPI
func (d *PDF) RenderPage(index int) (*image.RGBA, error) {
	if err := d.checkIndex(index); err != nil {
		return nil, err
	}
	img, err := d.raster.ImageDPI(index, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("page %d: failed to render: %w", index+1, err)
	}
	return img, nil
}

// Close releases MuPDF and, if it was opened, the fallback reader
func (d *PDF) Close() error {
	err := d.raster.Close()
	if d.file != nil {
		err = errors.Join(err, d.file.Close())
	}
	return err
}

func (d *PDF) checkIndex(index int) error {
	if index < 0 || index >= d.PageCount() {
		return fmt.Errorf("page index %d out of range [0, %d)", index, d.PageCount())
	}
	return nil
}
