package ocr

import (
	"context"
	"errors"
	"io"
)

// ErrOCRFailed reports that no page of a document could be recognized.
var ErrOCRFailed = errors.New("ocr processing failed")

// DefaultDPI is the rasterization resolution used before recognition.
const DefaultDPI = 300

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // e.g., 6 is good for uniform block of text
	OEM           int // 1 = LSTM; leave 0 to use default

	MaxPages int    // 0 = no limit
	TempDir  string // scratch space for spooled PDFs and rendered pages; "" = os default
}

func (c Config) withDefaults() Config {
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng"
	}
	return c
}

// PDFReader provides per-page text and per-page rasterization of a PDF.
type PDFReader interface {
	// PageTexts returns the embedded text layer of every page, in page order.
	PageTexts(ctx context.Context, r io.Reader) ([]string, error)
	// RenderPages rasterizes every page to an image file at dpi. The returned
	// cleanup removes the images and must be called once they are consumed.
	RenderPages(ctx context.Context, r io.Reader, dpi int) (paths []string, cleanup func(), err error)
}

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}
