// Package pipeline sequences text extraction, structured extraction, schema
// validation and sustainability scoring into one parse request.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/deffeddef/invoice-extractor-app/constants"
	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
	"github.com/deffeddef/invoice-extractor-app/internal/extract"
	"github.com/deffeddef/invoice-extractor-app/internal/llm"
)

// Scorer enriches a validated invoice with sustainability data.
type Scorer interface {
	Score(ctx context.Context, inv *entity.Invoice) *entity.Invoice
}

// Processor runs the stages of a parse request in order. It holds no
// per-request state and is safe for concurrent use when its collaborators are.
type Processor struct {
	logger    *slog.Logger
	text      extract.TextExtractor
	engine    llm.InvoiceExtractor
	validator *Validator
	scorer    Scorer
}

func NewProcessor(logger *slog.Logger, text extract.TextExtractor, engine llm.InvoiceExtractor, validator *Validator, scorer Scorer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, text: text, engine: engine, validator: validator, scorer: scorer}
}

// Parse runs the whole pipeline and returns the result envelope. Every failure
// is folded into an error envelope; nothing is returned as a Go error.
func (p *Processor) Parse(ctx context.Context, fileName string, r io.ReadSeeker) entity.ExtractionResult {
	ctx = common.WithFileName(ctx, fileName)
	logger := common.LoggerFrom(ctx, p.logger)
	start := time.Now()

	inv, stage, err := p.Run(ctx, fileName, r)
	if err != nil {
		msg, code := userMessage(err)
		if code == "" {
			logger.Error("pipeline.failed.unexpected", "stage", stage, "state", constants.StageError, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		} else {
			logger.Warn("pipeline.failed", "stage", stage, "state", constants.StageError, "code", code, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		}
		return entity.Failure(msg)
	}
	logger.Info("pipeline.done", "line_items", len(inv.LineItems), "elapsed_ms", time.Since(start).Milliseconds())
	return entity.Success(inv)
}

// Run executes the stages and reports the stage it stopped in: StageDone on
// success, otherwise the stage that failed (the run itself ends in StageError).
// A non-nil invoice is always fully scored.
func (p *Processor) Run(ctx context.Context, fileName string, r io.ReadSeeker) (*entity.Invoice, constants.Stage, error) {
	logger := common.LoggerFrom(ctx, p.logger)

	var text string
	err := p.stage(ctx, logger, constants.StageExtractingText, func() error {
		res, err := p.text.Extract(ctx, fileName, r)
		if err != nil {
			return err
		}
		if strings.TrimSpace(res.Text) == "" {
			return common.NewAppError(common.CodeTextExtractionEmpty, common.MsgTextExtractionEmpty, nil)
		}
		for _, w := range res.Warnings {
			logger.Warn("pipeline.extract.warning", "warning", w)
		}
		logger.Info("pipeline.extract.ok", "method", res.Method, "pages", res.Pages, "chars", len(res.Text))
		text = res.Text
		return nil
	})
	if err != nil {
		return nil, constants.StageExtractingText, err
	}

	var raw json.RawMessage
	err = p.stage(ctx, logger, constants.StageExtractingStructured, func() error {
		raw, err = p.engine.ExtractInvoiceData(ctx, text)
		return err
	})
	if err != nil {
		return nil, constants.StageExtractingStructured, err
	}

	var inv *entity.Invoice
	err = p.stage(ctx, logger, constants.StageValidating, func() error {
		inv, err = p.validator.Validate(raw)
		return err
	})
	if err != nil {
		return nil, constants.StageValidating, err
	}

	err = p.stage(ctx, logger, constants.StageScoring, func() error {
		inv = p.scorer.Score(ctx, inv)
		return nil
	})
	if err != nil {
		return nil, constants.StageScoring, err
	}
	return inv, constants.StageDone, nil
}

func (p *Processor) stage(ctx context.Context, logger *slog.Logger, s constants.Stage, fn func() error) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		logger.Debug("pipeline.stage.aborted", "stage", s, "next", constants.StageError, "error", err)
		return err
	}
	logger.Debug("pipeline.stage.start", "stage", s)
	if err := fn(); err != nil {
		logger.Debug("pipeline.stage.failed", "stage", s, "next", constants.StageError, "elapsed_ms", time.Since(start).Milliseconds())
		return err
	}
	logger.Debug("pipeline.stage.done", "stage", s, "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// userMessage maps err to the message shown to callers. Classified failures
// carry their own message; anything else is reported generically and the
// returned code is empty.
func userMessage(err error) (msg, code string) {
	if appErr, ok := common.AsAppError(err); ok {
		return appErr.Message, appErr.Code
	}
	if errors.Is(err, common.ErrInvalidValue) {
		return "Invalid value: " + err.Error(), common.CodeInvalidValue
	}
	return common.MsgUnexpected, ""
}
