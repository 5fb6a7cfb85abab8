// Package modelfile fetches the local model weights before the inference server needs them.
package modelfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"
)

// Ensure returns the path of dir/name, downloading it from src first when it is missing.
// src may be any go-getter source (http(s), s3, gcs, local file).
// A failed download leaves nothing behind at the destination.
func Ensure(ctx context.Context, src, dir, name string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.New("model file name is required")
	}
	dst := filepath.Join(dir, name)

	if fi, err := os.Stat(dst); err == nil && !fi.IsDir() && fi.Size() > 0 {
		logger.Debug("modelfile.present", "path", dst, "bytes", fi.Size())
		return dst, nil
	}
	if strings.TrimSpace(src) == "" {
		return "", fmt.Errorf("model file %s is missing and no download url is configured", dst)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}

	part := dst + ".part"
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     part,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}

	start := time.Now()
	logger.Info("modelfile.download.start", "src", src, "dst", dst)
	if err := client.Get(); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("download model: %w", err)
	}
	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("install model: %w", err)
	}

	fi, _ := os.Stat(dst)
	var size int64
	if fi != nil {
		size = fi.Size()
	}
	logger.Info("modelfile.download.ok", "dst", dst, "bytes", size, "elapsed_ms", time.Since(start).Milliseconds())
	return dst, nil
}
