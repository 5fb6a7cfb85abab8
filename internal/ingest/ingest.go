package ingest

import (
	"context"
	"io"
	"time"

	"github.com/deffeddef/invoice-extractor-app/internal/entity"
)

// Parser turns one document into a result envelope. *pipeline.Processor satisfies it.
type Parser interface {
	Parse(ctx context.Context, fileName string, r io.ReadSeeker) entity.ExtractionResult
}

// Job is a single file waiting to be parsed.
type Job struct {
	Path        string
	SubmittedAt time.Time
	RequestID   string
}

// Outcome is the per-file processing result.
type Outcome struct {
	Path    string
	Result  entity.ExtractionResult
	OutPath string // set when the envelope was written to disk
	Elapsed time.Duration
	Err     string // I/O failure; pipeline failures live in Result
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}
