package extract

import (
	"context"
	"io"
	"time"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, fileName string, r io.ReadSeeker) (Result, error)
}

// Extraction methods reported in Result.Method.
const (
	MethodPlainText = "plain-text"
	MethodPDFText   = "pdf-text"
	MethodPDFOCR    = "pdf-ocr"
)

type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.TXT
	Method     string // "plain-text" | "pdf-text" | "pdf-ocr"
	Duration   time.Duration
	Warnings   []string
}
