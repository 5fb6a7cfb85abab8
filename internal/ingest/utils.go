package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deffeddef/invoice-extractor-app/constants"
	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
)

// AllowedExt checks if a file extension is one the pipeline accepts (pdf/txt).
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// OutputPath maps an input document to "<outDir>/<stem>.json".
func OutputPath(outDir, path string) string {
	base := filepath.Base(path)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

// ProcessFile opens path, runs it through p and, when outDir is set, writes the envelope next to the others.
func ProcessFile(ctx context.Context, p Parser, path, outDir string) Outcome {
	start := time.Now()
	out := Outcome{Path: path}

	if common.RequestIDFromContext(ctx) == "" {
		ctx = common.WithRequestID(ctx, uuid.NewString())
	}

	f, err := os.Open(path)
	if err != nil {
		out.Err = fmt.Sprintf("open: %v", err)
		return out
	}
	defer f.Close()

	out.Result = p.Parse(ctx, filepath.Base(path), f)
	out.Elapsed = time.Since(start)

	if outDir != "" {
		dst, err := writeEnvelope(outDir, path, out.Result)
		if err != nil {
			out.Err = err.Error()
			return out
		}
		out.OutPath = dst
	}
	return out
}

func writeEnvelope(outDir, path string, res entity.ExtractionResult) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir out: %w", err)
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	dst := OutputPath(outDir, path)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename result: %w", err)
	}
	return dst, nil
}
