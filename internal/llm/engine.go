package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
)

// Engine turns document text into a candidate invoice record by prompting a Generator.
type Engine struct {
	gen    Generator
	params GenerateParams
	logger *slog.Logger
}

func NewEngine(gen Generator, params GenerateParams, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = DefaultParams().MaxTokens
	}
	return &Engine{gen: gen, params: params, logger: logger}
}

// ExtractInvoiceData prompts the model once and returns the JSON object it produced.
// Only well-formedness is checked here.
func (e *Engine) ExtractInvoiceData(ctx context.Context, text string) (json.RawMessage, error) {
	logger := common.LoggerFrom(ctx, e.logger)
	start := time.Now()
	prompt := BuildInvoicePrompt(text)

	logger.Info("llm.extract.start",
		"text_len", len(text),
		"prompt_len", len(prompt),
		"max_tokens", e.params.MaxTokens,
		"temp", e.params.Temperature,
		"json_mode", e.params.JSONMode,
	)

	out, err := e.gen.Generate(ctx, prompt, e.params)
	if err != nil {
		logger.Error("llm.extract.inference_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, common.NewAppError(common.CodeModelInference, common.MsgModelFailed, err)
	}

	raw, err := ParseModelOutput(out)
	switch {
	case errors.Is(err, ErrNoJSONSpan):
		logger.Error("llm.extract.malformed_output", "output_len", len(out), "output", truncate(out, 2048))
		return nil, common.NewAppError(common.CodeModelOutputMalformed,
			common.MsgModelFailed+" No JSON object was found in the model output.", err)
	case errors.Is(err, ErrInvalidJSON):
		logger.Error("llm.extract.invalid_json", "error", err, "output", truncate(out, 2048))
		return nil, common.NewAppError(common.CodeModelOutputInvalidJSON,
			common.MsgModelFailed+" The model output is not valid JSON.", err)
	case err != nil:
		return nil, err
	}

	logger.Info("llm.extract.ok", "json_bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
