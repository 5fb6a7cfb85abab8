package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Poppler implements PDFReader with the pdftotext and pdftoppm binaries.
type Poppler struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewPoppler(cfg Config, runner Runner, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Poppler{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

func (p *Poppler) PageTexts(ctx context.Context, r io.Reader) ([]string, error) {
	dir, path, err := p.spool(r)
	if err != nil {
		return nil, err
	}
	defer p.removeAll(dir)

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	return splitPages(string(out)), nil
}

func (p *Poppler) RenderPages(ctx context.Context, r io.Reader, dpi int) ([]string, func(), error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	dir, path, err := p.spool(r)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() { p.removeAll(dir) }

	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	if _, errb, err := p.runner.Run(ctx, p.cfg.Pdftoppm, "-r", strconv.Itoa(dpi), "-png", path, prefix); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// pdftoppm zero-pads page numbers to equal width, so a lexical sort is page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if p.cfg.MaxPages > 0 && len(matches) > p.cfg.MaxPages {
		matches = matches[:p.cfg.MaxPages]
	}
	if len(matches) == 0 {
		cleanup()
		return nil, func() {}, fmt.Errorf("pdftoppm produced no images")
	}
	p.logger.Debug("ocr.render.ok", "pages", len(matches), "dpi", dpi)
	return matches, cleanup, nil
}

// spool copies r into a fresh temp dir because poppler reads from paths.
func (p *Poppler) spool(r io.Reader) (dir, path string, err error) {
	dir, err = os.MkdirTemp(p.cfg.TempDir, "invoice-pdf-*")
	if err != nil {
		return "", "", err
	}
	path = filepath.Join(dir, "in.pdf")
	f, err := os.Create(path)
	if err != nil {
		p.removeAll(dir)
		return "", "", err
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		p.removeAll(dir)
		if copyErr != nil {
			return "", "", fmt.Errorf("spool pdf: %w", copyErr)
		}
		return "", "", fmt.Errorf("spool pdf: %w", closeErr)
	}
	return dir, path, nil
}

func (p *Poppler) removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
	}
}

// splitPages splits pdftotext output on its form-feed page separator.
// pdftotext terminates every page with \f, so the trailing empty chunk is dropped.
func splitPages(out string) []string {
	if out == "" {
		return nil
	}
	pages := strings.Split(out, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
