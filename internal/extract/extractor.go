package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deffeddef/invoice-extractor-app/constants"
	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/ocr"
)

// DefaultMinDirectChars is the trimmed character count below which a PDF's
// text layer is treated as missing and the document is OCR'd instead.
const DefaultMinDirectChars = 100

type Config struct {
	MinDirectChars int // default 100
	DPI            int // default 300
}

// Extractor converts PDF and TXT documents into plain text.
type Extractor struct {
	cfg    Config
	pdf    ocr.PDFReader
	rec    ocr.Recognizer
	logger *slog.Logger
}

func NewExtractor(cfg Config, pdf ocr.PDFReader, rec ocr.Recognizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinDirectChars <= 0 {
		cfg.MinDirectChars = DefaultMinDirectChars
	}
	if cfg.DPI <= 0 {
		cfg.DPI = ocr.DefaultDPI
	}
	return &Extractor{cfg: cfg, pdf: pdf, rec: rec, logger: logger}
}

// Extract picks a strategy based on the file name suffix.
func (e *Extractor) Extract(ctx context.Context, fileName string, r io.ReadSeeker) (Result, error) {
	start := time.Now()
	logger := common.LoggerFrom(ctx, e.logger)
	ext := constants.NormalizeExt(filepath.Ext(fileName))

	var (
		res Result
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, logger, r)
	case constants.TXT:
		res, err = e.extractTXT(r)
	default:
		logger.Warn("extract.unsupported", "extension", ext, "supported", constants.FileTypes)
		return Result{}, common.NewAppError(common.CodeUnsupportedFileType, common.MsgUnsupportedFileType,
			fmt.Errorf("extension %q", ext))
	}
	res.Duration = time.Since(start)
	if err == nil {
		logger.Debug("extract.done", "method", res.Method, "pages", res.Pages, "chars", utf8.RuneCountInString(res.Text), "duration_ms", res.Duration.Milliseconds())
	}
	return res, err
}

func (e *Extractor) extractTXT(r io.Reader) (Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read txt: %w", err)
	}
	if !utf8.Valid(b) {
		return Result{}, common.NewAppError(common.CodeInvalidValue,
			"Invalid value: the file is not valid UTF-8 text.", common.ErrInvalidValue)
	}
	return Result{Text: string(b), Pages: 1, SourceType: constants.TXT, Method: MethodPlainText}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, logger *slog.Logger, r io.ReadSeeker) (Result, error) {
	pages, err := e.pdf.PageTexts(ctx, r)
	if err == nil {
		text := strings.Join(pages, "\n")
		n := utf8.RuneCountInString(strings.TrimSpace(text))
		if n >= e.cfg.MinDirectChars {
			return Result{Text: text, Pages: len(pages), SourceType: constants.PDF, Method: MethodPDFText}, nil
		}
		logger.Info("extract.pdf.fallback_ocr", "reason", "minimal text", "chars", n, "threshold", e.cfg.MinDirectChars)
	} else {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logger.Warn("extract.pdf.fallback_ocr", "reason", "direct extraction failed", "error", err)
	}

	// the direct pass may have consumed part of the stream
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Result{}, fmt.Errorf("rewind pdf: %w", err)
	}
	res, err := e.ocrPDF(ctx, logger, r)
	if errors.Is(err, ocr.ErrOCRFailed) {
		return res, common.NewAppError(common.CodeTextExtractionEmpty, common.MsgTextExtractionEmpty, err)
	}
	return res, err
}

// ocrPDF rasterizes every page and recognizes it. Pages that fail to
// recognize are skipped with a warning; if none succeed ErrOCRFailed is returned.
func (e *Extractor) ocrPDF(ctx context.Context, logger *slog.Logger, r io.Reader) (Result, error) {
	res := Result{SourceType: constants.PDF, Method: MethodPDFOCR}
	if e.rec == nil {
		return res, fmt.Errorf("%w: no recognizer configured", ocr.ErrOCRFailed)
	}

	images, cleanup, err := e.pdf.RenderPages(ctx, r, e.cfg.DPI)
	if err != nil {
		logger.Error("extract.ocr.render_failed", "error", err)
		return res, fmt.Errorf("%w: %v", ocr.ErrOCRFailed, err)
	}
	defer cleanup()

	var b strings.Builder
	recognized := 0
	for i, img := range images {
		txt, err := e.rec.Recognize(ctx, img)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			logger.Warn("extract.ocr.page_failed", "page", i+1, "error", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		b.WriteString(ocr.Normalize(txt))
		b.WriteString("\n")
		recognized++
	}
	res.Pages = len(images)
	if recognized == 0 {
		return res, fmt.Errorf("%w: no page could be recognized", ocr.ErrOCRFailed)
	}
	res.Text = b.String()
	return res, nil
}
