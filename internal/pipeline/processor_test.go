package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deffeddef/invoice-extractor-app/constants"
	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
	"github.com/deffeddef/invoice-extractor-app/internal/extract"
	"github.com/deffeddef/invoice-extractor-app/internal/llm"
	"github.com/deffeddef/invoice-extractor-app/internal/ocr"
	"github.com/deffeddef/invoice-extractor-app/internal/sustainability"
)

type fakeText struct {
	res extract.Result
	err error
}

func (f fakeText) Extract(context.Context, string, io.ReadSeeker) (extract.Result, error) {
	return f.res, f.err
}

type fakeEngine struct {
	raw   string
	err   error
	calls int
}

func (f *fakeEngine) ExtractInvoiceData(context.Context, string) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

type fakeGenerator struct{ out string }

func (f fakeGenerator) Generate(context.Context, string, llm.GenerateParams) (string, error) {
	return f.out, nil
}

func newProcessor(t *testing.T, text extract.TextExtractor, engine llm.InvoiceExtractor) *Processor {
	t.Helper()
	v, err := NewValidator(false, nil)
	require.NoError(t, err)
	return NewProcessor(nil, text, engine, v, sustainability.NewScorer(sustainability.Providers{}, 0, nil))
}

const greenInvoice = `{"vendor": {"name": "GreenCorp"}, "line_items": [{"description": "Recycled paper", "quantity": 2, "unit_price": 5, "total": 10}], "total_amount": 10}`

func TestParseSuccess(t *testing.T) {
	engine := &fakeEngine{raw: greenInvoice}
	p := newProcessor(t, fakeText{res: extract.Result{Text: "Invoice from GreenCorp"}}, engine)

	res := p.Parse(context.Background(), "invoice.pdf", strings.NewReader("x"))
	require.True(t, res.OK(), res.ErrorMessage)
	assert.Equal(t, "success", res.Status)
	assert.Empty(t, res.ErrorMessage)

	inv := res.InvoiceData
	require.NotNil(t, inv.SustainabilityMetrics)
	assert.True(t, inv.SustainabilityMetrics.GreenVendorFlag)
	assert.Equal(t, "Low", inv.SustainabilityMetrics.OverallESGRisk)
	require.NotNil(t, inv.LineItems[0].SustainabilityScore)
	assert.Equal(t, 80.0, *inv.LineItems[0].SustainabilityScore)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "error_message")
}

func TestParseEndToEndWithRealStages(t *testing.T) {
	txt := extract.NewExtractor(extract.Config{}, nil, nil, nil)
	engine := llm.NewEngine(fakeGenerator{out: greenInvoice + "\n```"}, llm.DefaultParams(), nil)
	p := newProcessor(t, txt, engine)

	res := p.Parse(context.Background(), "invoice.txt", strings.NewReader("This is a test text file."))
	require.True(t, res.OK(), res.ErrorMessage)
	assert.Equal(t, 10.0, res.InvoiceData.TotalAmount)

	res = p.Parse(context.Background(), "invoice.doc", strings.NewReader("x"))
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, "Unsupported file type. Please upload a PDF or TXT file.", res.ErrorMessage)
	assert.Nil(t, res.InvoiceData)
}

func TestRunStopsAtFailingStage(t *testing.T) {
	tests := []struct {
		name      string
		text      fakeText
		engine    *fakeEngine
		wantStage constants.Stage
		wantMsg   string
	}{
		{
			name:      "unsupported type",
			text:      fakeText{err: common.NewAppError(common.CodeUnsupportedFileType, common.MsgUnsupportedFileType, nil)},
			engine:    &fakeEngine{},
			wantStage: constants.StageExtractingText,
			wantMsg:   "Unsupported file type. Please upload a PDF or TXT file.",
		},
		{
			name:      "blank text",
			text:      fakeText{res: extract.Result{Text: " \n\t "}},
			engine:    &fakeEngine{},
			wantStage: constants.StageExtractingText,
			wantMsg:   "Failed to extract text from the document.",
		},
		{
			name: "ocr failed",
			text: fakeText{err: common.NewAppError(common.CodeTextExtractionEmpty, common.MsgTextExtractionEmpty,
				fmt.Errorf("%w: no page", ocr.ErrOCRFailed))},
			engine:    &fakeEngine{},
			wantStage: constants.StageExtractingText,
			wantMsg:   "Failed to extract text from the document.",
		},
		{
			name:      "malformed model output",
			text:      fakeText{res: extract.Result{Text: "text"}},
			engine:    &fakeEngine{err: common.NewAppError(common.CodeModelOutputMalformed, common.MsgModelFailed, llm.ErrNoJSONSpan)},
			wantStage: constants.StageExtractingStructured,
			wantMsg:   common.MsgModelFailed,
		},
		{
			name:      "schema violation",
			text:      fakeText{res: extract.Result{Text: "text"}},
			engine:    &fakeEngine{raw: `{"line_items": []}`},
			wantStage: constants.StageValidating,
			wantMsg:   "Validation failed. The LLM returned data that does not match the required schema. Details: ",
		},
		{
			name:      "unclassified failure hides detail",
			text:      fakeText{err: errors.New("disk on fire at /var/secret")},
			engine:    &fakeEngine{},
			wantStage: constants.StageExtractingText,
			wantMsg:   "An unexpected error occurred.",
		},
		{
			name:      "generic value error",
			text:      fakeText{err: fmt.Errorf("bad byte: %w", common.ErrInvalidValue)},
			engine:    &fakeEngine{},
			wantStage: constants.StageExtractingText,
			wantMsg:   "Invalid value: bad byte: invalid value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcessor(t, tt.text, tt.engine)

			inv, stage, err := p.Run(context.Background(), "f.pdf", strings.NewReader("x"))
			require.Error(t, err)
			assert.Nil(t, inv)
			assert.Equal(t, tt.wantStage, stage)
			if stage == constants.StageExtractingText {
				assert.Zero(t, tt.engine.calls, "later stages must not run")
			}

			res := p.Parse(context.Background(), "f.pdf", strings.NewReader("x"))
			assert.Equal(t, "error", res.Status)
			assert.Nil(t, res.InvoiceData)
			assert.True(t, strings.HasPrefix(res.ErrorMessage, tt.wantMsg), "got %q", res.ErrorMessage)
			assert.NotContains(t, res.ErrorMessage, "/var/secret")
		})
	}
}

func TestRunReachesDone(t *testing.T) {
	p := newProcessor(t, fakeText{res: extract.Result{Text: "t"}}, &fakeEngine{raw: `{"total_amount": 1}`})
	inv, stage, err := p.Run(context.Background(), "a.txt", strings.NewReader("t"))
	require.NoError(t, err)
	assert.Equal(t, constants.StageDone, stage)
	assert.Equal(t, "Medium", inv.SustainabilityMetrics.OverallESGRisk)
}

func TestParseCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &fakeEngine{raw: `{"total_amount": 1}`}
	res := newProcessor(t, fakeText{res: extract.Result{Text: "t"}}, engine).Parse(ctx, "a.txt", strings.NewReader("t"))
	assert.Equal(t, entity.Failure("An unexpected error occurred."), res)
	assert.Zero(t, engine.calls)
}

// expiringCtx reports no error for the first `live` Err calls and Canceled afterwards,
// so a run can be cut off between two specific stages.
type expiringCtx struct {
	context.Context
	mu   sync.Mutex
	live int
}

func (c *expiringCtx) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live > 0 {
		c.live--
		return nil
	}
	return context.Canceled
}

func TestRunCancelledBeforeScoringFails(t *testing.T) {
	// one Err check per stage: text, structured, validating
	ctx := &expiringCtx{Context: context.Background(), live: 3}
	p := newProcessor(t, fakeText{res: extract.Result{Text: "t"}}, &fakeEngine{raw: greenInvoice})

	inv, stage, err := p.Run(ctx, "a.txt", strings.NewReader("t"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, inv)
	assert.Equal(t, constants.StageScoring, stage)

	ctx = &expiringCtx{Context: context.Background(), live: 3}
	res := p.Parse(ctx, "a.txt", strings.NewReader("t"))
	assert.Equal(t, entity.Failure("An unexpected error occurred."), res)
}

func TestParseSuccessIsAlwaysScored(t *testing.T) {
	for live := 0; live <= 5; live++ {
		ctx := &expiringCtx{Context: context.Background(), live: live}
		p := newProcessor(t, fakeText{res: extract.Result{Text: "t"}}, &fakeEngine{raw: greenInvoice})

		res := p.Parse(ctx, "a.txt", strings.NewReader("t"))
		if !res.OK() {
			continue
		}
		require.NotNil(t, res.InvoiceData.SustainabilityMetrics, "live=%d", live)
		for _, it := range res.InvoiceData.LineItems {
			require.NotNil(t, it.SustainabilityScore, "live=%d", live)
		}
	}
}
