package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// ProcessDirectory walks root, skips hidden entries if requested, and parses every pdf/txt file
// sequentially. Returns per-file outcomes + aggregate stats.
func ProcessDirectory(ctx context.Context, p Parser, root, outDir string, skipHidden bool, logger *slog.Logger) ([]Outcome, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var results []Outcome
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Outcome{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		o := ProcessFile(ctx, p, path, outDir)
		results = append(results, o)
		if o.Err == "" && o.Result.OK() {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		logger.Info("ingest.file.done", "path", path, "status", o.Result.Status, "elapsed_ms", o.Elapsed.Milliseconds())
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	logger.Info("ingest.dir.done", "root", root, "matched", stats.Matched, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return results, stats, nil
}
