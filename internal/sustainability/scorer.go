package sustainability

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/deffeddef/invoice-extractor-app/constants"
	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
)

// Scorer computes line-item scores and invoice-level sustainability metrics.
// Lookup failures are logged and treated as "no data", so scoring always completes.
type Scorer struct {
	p       Providers
	timeout time.Duration
	logger  *slog.Logger
}

// NewScorer builds a Scorer. timeout bounds each individual lookup; 0 disables it.
func NewScorer(p Providers, timeout time.Duration, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{p: p.withDefaults(), timeout: timeout, logger: logger}
}

// ItemAssessment is the outcome of scoring one line item.
type ItemAssessment struct {
	Score    float64
	EcoLabel bool
	// KgCO2e is nil when no estimate was available.
	KgCO2e *float64
}

// CO2Intensive reports whether the estimate exceeds the CO2-intensive threshold.
func (a ItemAssessment) CO2Intensive() bool {
	return a.KgCO2e != nil && *a.KgCO2e > constants.HighEmissionKgCO2e
}

// AssessItem scores a single line item on a 0-100 scale.
func (s *Scorer) AssessItem(ctx context.Context, item entity.LineItem) ItemAssessment {
	logger := common.LoggerFrom(ctx, s.logger)
	a := ItemAssessment{Score: constants.BaseItemScore}

	eco, err := lookup(ctx, s.timeout, func(ctx context.Context) (bool, error) {
		return s.p.EcoLabels.HasEcoLabel(ctx, item.Description)
	})
	s.logLookupErr(logger, "eco_label", err)
	if err == nil && eco {
		a.EcoLabel = true
		a.Score += constants.EcoLabelBoost
	}

	kg, err := lookup(ctx, s.timeout, func(ctx context.Context) (float64, error) {
		return s.p.Emissions.EstimateCO2(ctx, item.Description, item.Quantity)
	})
	s.logLookupErr(logger, "co2", err)
	if err == nil {
		a.KgCO2e = &kg
		switch {
		case kg > constants.HighEmissionKgCO2e:
			a.Score -= constants.HighEmissionCut
		case kg > constants.LowEmissionKgCO2e:
			a.Score -= constants.MediumEmissionCut
		default:
			a.Score += constants.LowEmissionBoost
		}
	}

	a.Score = clamp(a.Score)
	return a
}

// ItemScore is AssessItem's score alone.
func (s *Scorer) ItemScore(ctx context.Context, item entity.LineItem) float64 {
	return s.AssessItem(ctx, item).Score
}

// Score attaches a score to every line item and sets the invoice metrics.
// The invoice is modified in place and returned. Each item's CO2 estimate is
// looked up once and feeds both its score and the CO2-intensive flag.
func (s *Scorer) Score(ctx context.Context, inv *entity.Invoice) *entity.Invoice {
	if inv == nil {
		return nil
	}
	logger := common.LoggerFrom(ctx, s.logger)

	intensive := false
	totalKg := 0.0
	for i := range inv.LineItems {
		a := s.AssessItem(ctx, inv.LineItems[i])
		score := a.Score
		inv.LineItems[i].SustainabilityScore = &score
		if a.CO2Intensive() {
			intensive = true
		}
		if a.KgCO2e != nil {
			totalKg += *a.KgCO2e
		}
	}

	green, risk := s.assessVendor(ctx, logger, inv.VendorName())
	inv.SustainabilityMetrics = &entity.SustainabilityMetrics{
		OverallESGRisk:        string(risk),
		GreenVendorFlag:       green,
		CO2IntensiveItemsFlag: intensive,
	}

	logger.Info("sustainability.scored",
		"line_items", len(inv.LineItems),
		"total_kg_co2e", totalKg,
		"green_vendor", green,
		"esg_risk", risk,
		"co2_intensive", intensive,
	)
	return inv
}

// assessVendor derives the green flag and ESG risk. No vendor name means
// never green and always Medium risk.
func (s *Scorer) assessVendor(ctx context.Context, logger *slog.Logger, vendor string) (bool, constants.ESGRisk) {
	if vendor == "" {
		return false, constants.ESGRiskMedium
	}

	rating, err := lookup(ctx, s.timeout, func(ctx context.Context) (string, error) {
		return s.p.Ratings.ESGRating(ctx, vendor)
	})
	s.logLookupErr(logger, "esg_rating", err)

	bcorp, err := lookup(ctx, s.timeout, func(ctx context.Context) (bool, error) {
		return s.p.Certifications.IsBCorp(ctx, vendor)
	})
	s.logLookupErr(logger, "b_corp", err)

	switch {
	case IsTopTier(rating) || (err == nil && bcorp):
		return true, constants.ESGRiskLow
	case rating == constants.RatingSilver:
		return false, constants.ESGRiskMediumLow
	default:
		return false, constants.ESGRiskMedium
	}
}

// IsTopTier reports whether rating is good enough on its own to make a vendor green.
func IsTopTier(rating string) bool {
	return rating == constants.RatingGold || rating == constants.RatingPlatinum
}

func (s *Scorer) logLookupErr(logger *slog.Logger, kind string, err error) {
	if err == nil || errors.Is(err, ErrNoData) {
		return
	}
	logger.Warn("sustainability.lookup_failed", "lookup", kind, "error", err)
}

func lookup[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return constants.MinItemScore
	}
	return math.Max(constants.MinItemScore, math.Min(constants.MaxItemScore, v))
}
