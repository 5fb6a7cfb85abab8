package llm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Model is the long-lived handle on the inference runtime. It loads the
// Generator on first use and allows at most one inference in flight, since
// a single loaded model is not safe for parallel generation.
type Model struct {
	load   Loader
	logger *slog.Logger

	mu     sync.Mutex
	gen    Generator
	loaded atomic.Bool // readable while a load holds mu

	inflight *semaphore.Weighted
}

func NewModel(load Loader, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{load: load, logger: logger, inflight: semaphore.NewWeighted(1)}
}

// Warm loads the model ahead of the first request.
func (m *Model) Warm(ctx context.Context) error {
	_, err := m.generator(ctx)
	return err
}

// Loaded reports whether the Generator has been initialized.
func (m *Model) Loaded() bool {
	return m.loaded.Load()
}

// Generate waits for the inflight slot, loading the model if needed.
func (m *Model) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	if err := m.inflight.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer m.inflight.Release(1)

	gen, err := m.generator(ctx)
	if err != nil {
		return "", err
	}
	return gen.Generate(ctx, prompt, params)
}

// generator returns the loaded Generator. Concurrent first calls converge on
// a single load; a failed load is not cached so the next call retries.
func (m *Model) generator(ctx context.Context) (Generator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != nil {
		return m.gen, nil
	}
	if m.load == nil {
		return nil, errors.New("llm: no model loader configured")
	}

	start := time.Now()
	m.logger.Info("llm.model.loading")
	gen, err := m.load(ctx)
	if err != nil {
		m.logger.Error("llm.model.load_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	m.gen = gen
	m.loaded.Store(true)
	m.logger.Info("llm.model.loaded", "elapsed_ms", time.Since(start).Milliseconds())
	return gen, nil
}
