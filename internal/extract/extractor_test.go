package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deffeddef/invoice-extractor-app/constants"
	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/ocr"
)

// fakePDF consumes the whole stream on every call so tests can see whether
// the extractor rewound it before the OCR pass.
type fakePDF struct {
	pages     []string
	pagesErr  error
	images    []string
	renderErr error

	renderInput []byte
	renderDPI   int
	cleaned     bool
}

func (f *fakePDF) PageTexts(_ context.Context, r io.Reader) ([]string, error) {
	_, _ = io.ReadAll(r)
	return f.pages, f.pagesErr
}

func (f *fakePDF) RenderPages(_ context.Context, r io.Reader, dpi int) ([]string, func(), error) {
	f.renderInput, _ = io.ReadAll(r)
	f.renderDPI = dpi
	if f.renderErr != nil {
		return nil, func() {}, f.renderErr
	}
	return f.images, func() { f.cleaned = true }, nil
}

type fakeRecognizer struct {
	text map[string]string
	err  map[string]error
}

func (f *fakeRecognizer) Recognize(_ context.Context, path string) (string, error) {
	if err := f.err[path]; err != nil {
		return "", err
	}
	return f.text[path], nil
}

const pdfBytes = "%PDF-1.4 fake document body"

func TestExtractTXTRoundTrip(t *testing.T) {
	e := NewExtractor(Config{}, &fakePDF{}, nil, nil)
	res, err := e.Extract(context.Background(), "note.TXT", strings.NewReader("This is a test text file."))
	require.NoError(t, err)
	assert.Equal(t, "This is a test text file.", res.Text)
	assert.Equal(t, constants.TXT, res.SourceType)
	assert.Equal(t, MethodPlainText, res.Method)
}

func TestExtractTXTInvalidUTF8(t *testing.T) {
	e := NewExtractor(Config{}, &fakePDF{}, nil, nil)
	_, err := e.Extract(context.Background(), "bad.txt", bytes.NewReader([]byte{0xff, 0xfe, 0x00}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidValue))
}

func TestExtractUnsupportedSuffix(t *testing.T) {
	e := NewExtractor(Config{}, &fakePDF{}, nil, nil)
	for _, name := range []string{"scan.png", "invoice.docx", "noext", "pdf"} {
		_, err := e.Extract(context.Background(), name, strings.NewReader("x"))
		require.Error(t, err, name)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeUnsupportedFileType, appErr.Code)
		assert.Equal(t, "Unsupported file type. Please upload a PDF or TXT file.", appErr.Message)
	}
}

func TestExtractPDFDirectText(t *testing.T) {
	long := strings.Repeat("Invoice line with enough text. ", 5)
	pdf := &fakePDF{pages: []string{long, "page two"}}
	e := NewExtractor(Config{}, pdf, &fakeRecognizer{}, nil)

	res, err := e.Extract(context.Background(), "invoice.pdf", strings.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, long+"\npage two", res.Text)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Nil(t, pdf.renderInput, "OCR must not run")
}

func TestExtractPDFFallsBackOnMinimalText(t *testing.T) {
	pdf := &fakePDF{pages: []string{"  tiny  "}, images: []string{"p1.png", "p2.png"}}
	rec := &fakeRecognizer{text: map[string]string{"p1.png": "Invoice  INV-1", "p2.png": "Total 10.00"}}
	e := NewExtractor(Config{}, pdf, rec, nil)

	res, err := e.Extract(context.Background(), "scan.pdf", strings.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-1\nTotal 10.00\n", res.Text)
	assert.Equal(t, MethodPDFOCR, res.Method)
	assert.Equal(t, []byte(pdfBytes), pdf.renderInput, "stream must be rewound before OCR")
	assert.Equal(t, 300, pdf.renderDPI)
	assert.True(t, pdf.cleaned)
}

func TestExtractPDFFallsBackOnDirectError(t *testing.T) {
	pdf := &fakePDF{pagesErr: errors.New("broken xref"), images: []string{"p1.png"}}
	rec := &fakeRecognizer{text: map[string]string{"p1.png": "recognized"}}
	e := NewExtractor(Config{DPI: 150}, pdf, rec, nil)

	res, err := e.Extract(context.Background(), "scan.pdf", strings.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "recognized\n", res.Text)
	assert.Equal(t, []byte(pdfBytes), pdf.renderInput)
	assert.Equal(t, 150, pdf.renderDPI)
}

func TestExtractPDFThresholdIsConfigurable(t *testing.T) {
	pdf := &fakePDF{pages: []string{"short but enough"}}
	e := NewExtractor(Config{MinDirectChars: 5}, pdf, &fakeRecognizer{}, nil)

	res, err := e.Extract(context.Background(), "a.pdf", strings.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, MethodPDFText, res.Method)
}

func TestExtractPDFSkipsFailedPages(t *testing.T) {
	pdf := &fakePDF{images: []string{"p1.png", "p2.png"}}
	rec := &fakeRecognizer{
		text: map[string]string{"p2.png": "second"},
		err:  map[string]error{"p1.png": errors.New("tesseract crashed")},
	}
	res, err := NewExtractor(Config{}, pdf, rec, nil).Extract(context.Background(), "a.pdf", strings.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "second\n", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 1")
}

func TestExtractPDFOCRFailure(t *testing.T) {
	tests := []struct {
		name string
		pdf  *fakePDF
		rec  ocr.Recognizer
	}{
		{"render fails", &fakePDF{renderErr: errors.New("pdftoppm missing")}, &fakeRecognizer{}},
		{"all pages fail", &fakePDF{images: []string{"p1.png"}}, &fakeRecognizer{err: map[string]error{"p1.png": errors.New("boom")}}},
		{"no recognizer", &fakePDF{images: []string{"p1.png"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(Config{}, tt.pdf, tt.rec, nil).Extract(context.Background(), "a.pdf", strings.NewReader(pdfBytes))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ocr.ErrOCRFailed))
			assert.True(t, errors.Is(err, common.ErrTextExtractionEmpty))
		})
	}
}
