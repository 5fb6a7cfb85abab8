// Package app wires configuration into a ready-to-use extraction pipeline.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/export"
	"github.com/deffeddef/invoice-extractor-app/internal/extract"
	"github.com/deffeddef/invoice-extractor-app/internal/llm"
	"github.com/deffeddef/invoice-extractor-app/internal/llm/local"
	"github.com/deffeddef/invoice-extractor-app/internal/ocr"
	"github.com/deffeddef/invoice-extractor-app/internal/ocr/azure"
	"github.com/deffeddef/invoice-extractor-app/internal/pipeline"
	"github.com/deffeddef/invoice-extractor-app/internal/sustainability"
)

// App holds the long-lived collaborators shared by the binaries.
type App struct {
	Processor *pipeline.Processor
	Model     *llm.Model
	Exporter  *export.Service

	closers []func() error
}

// Build constructs the pipeline from cfg. The model is not loaded here; call Model.Warm to preload it.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Exporter: export.NewService(logger)}

	text := NewTextExtractor(cfg.OCR, logger)

	localCfg := local.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
		Timeout: cfg.LLM.Timeout,
	}
	// Without MODEL_DOWNLOAD the inference server owns the weights; only the ping matters.
	if cfg.Model.Download {
		localCfg.ModelPath = cfg.Model.ModelPath()
	}
	model := llm.NewModel(local.NewLoader(localCfg, logger), logger)
	engine := llm.NewEngine(model, llm.GenerateParams{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		JSONMode:    cfg.LLM.JSONMode,
	}, logger)

	validator, err := pipeline.NewValidator(cfg.LLM.LenientRepair, logger)
	if err != nil {
		return nil, common.WrapError(err, "compile invoice schema")
	}

	providers, err := a.buildProviders(ctx, cfg.Sustainability, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	scorer := sustainability.NewScorer(providers, cfg.Sustainability.Timeout, logger)

	a.Model = model
	a.Processor = pipeline.NewProcessor(logger, text, engine, validator, scorer)
	logger.Info("app.build.ok",
		"ocr_provider", cfg.OCR.Provider,
		"ocr_enhance", cfg.OCR.Enhance,
		"llm_base_url", cfg.LLM.BaseURL,
		"model_path", cfg.Model.ModelPath(),
	)
	return a, nil
}

// NewTextExtractor picks the PDF reader and OCR recognizer configured in cfg.
func NewTextExtractor(cfg common.OCRConfig, logger *slog.Logger) *extract.Extractor {
	// tesseract's OpenMP threads oversubscribe the CPU when several pages or workers run at once
	runner := ocr.ExecRunner{Logger: logger, Env: []string{"OMP_THREAD_LIMIT=1"}}
	ocrCfg := ocr.Config{
		Pdftotext:     cfg.PDFToText,
		Pdftoppm:      cfg.PDFToPPM,
		Tesseract:     cfg.Tesseract,
		TesseractLang: cfg.Lang,
		TessdataDir:   cfg.TessdataDir,
	}

	var rec ocr.Recognizer
	switch cfg.Provider {
	case common.OCRProviderAzure:
		rec = azure.NewRecognizer(cfg.AzureEndpoint, cfg.AzureKey, logger)
	default:
		rec = ocr.NewTesseract(ocrCfg, runner, logger)
	}
	if cfg.Enhance {
		rec = ocr.NewEnhancingRecognizer(rec, logger)
	}

	return extract.NewExtractor(extract.Config{
		MinDirectChars: cfg.MinDirectChars,
		DPI:            cfg.DPI,
	}, ocr.NewPoppler(ocrCfg, runner, logger), rec, logger)
}

// buildProviders layers the configured lookups over the keyword stub:
// rules file, then SQLite registry for vendors, then HTTP services per capability.
func (a *App) buildProviders(ctx context.Context, cfg common.SustainabilityConfig, logger *slog.Logger) (sustainability.Providers, error) {
	rules := sustainability.DefaultRules()
	if cfg.RulesFile != "" {
		r, err := sustainability.LoadRules(cfg.RulesFile)
		if err != nil {
			return sustainability.Providers{}, common.WrapError(err, "load sustainability rules")
		}
		rules = r
	}
	kw := sustainability.NewKeyword(rules)
	p := sustainability.Providers{Ratings: kw, Certifications: kw, EcoLabels: kw, Emissions: kw}

	if cfg.VendorRegistryDSN != "" {
		reg, err := sustainability.OpenSQLiteRegistry(ctx, cfg.VendorRegistryDSN, logger)
		if err != nil {
			return sustainability.Providers{}, common.WrapError(err, "open vendor registry")
		}
		a.closers = append(a.closers, reg.Close)
		p.Ratings, p.Certifications = reg, reg
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.EcoVadisURL != "" {
		p.Ratings = sustainability.NewEcoVadisClient(sustainability.HTTPConfig{BaseURL: cfg.EcoVadisURL, APIKey: cfg.EcoVadisKey}, client, logger)
	}
	if cfg.BCorpURL != "" {
		p.Certifications = sustainability.NewBCorpClient(sustainability.HTTPConfig{BaseURL: cfg.BCorpURL}, client, logger)
	}
	if cfg.EcolabelURL != "" {
		p.EcoLabels = sustainability.NewEcolabelClient(sustainability.HTTPConfig{BaseURL: cfg.EcolabelURL}, client, logger)
	}
	if cfg.CO2URL != "" {
		p.Emissions = sustainability.NewCO2Client(sustainability.HTTPConfig{BaseURL: cfg.CO2URL}, client, logger)
	}
	return p, nil
}

// Close releases resources opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
