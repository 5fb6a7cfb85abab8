package sustainability

import (
	"context"
	"strings"
)

// Keyword answers every lookup from free-text matches against Rules. It
// stands in for the real registries and never fails.
type Keyword struct {
	rules Rules
}

func NewKeyword(rules Rules) *Keyword {
	labels := make([]string, len(rules.EcoLabels))
	for i, l := range rules.EcoLabels {
		labels[i] = strings.ToLower(l)
	}
	emissions := make([]EmissionRule, len(rules.Emissions))
	for i, e := range rules.Emissions {
		emissions[i] = EmissionRule{Keyword: strings.ToLower(e.Keyword), KgPerUnit: e.KgPerUnit}
	}
	rules.EcoLabels = labels
	rules.Emissions = emissions
	return &Keyword{rules: rules}
}

func (k *Keyword) ESGRating(_ context.Context, vendor string) (string, error) {
	for _, r := range k.rules.Ratings {
		if r.Contains != "" && strings.Contains(vendor, r.Contains) {
			return r.Rating, nil
		}
	}
	return k.rules.DefaultRating, nil
}

func (k *Keyword) IsBCorp(_ context.Context, vendor string) (bool, error) {
	for _, frag := range k.rules.BCorp {
		if frag != "" && strings.Contains(vendor, frag) {
			return true, nil
		}
	}
	return false, nil
}

func (k *Keyword) HasEcoLabel(_ context.Context, description string) (bool, error) {
	d := strings.ToLower(description)
	for _, frag := range k.rules.EcoLabels {
		if frag != "" && strings.Contains(d, frag) {
			return true, nil
		}
	}
	return false, nil
}

func (k *Keyword) EstimateCO2(_ context.Context, description string, quantity float64) (float64, error) {
	d := strings.ToLower(description)
	for _, r := range k.rules.Emissions {
		if r.Keyword != "" && strings.Contains(d, r.Keyword) {
			return r.KgPerUnit * quantity, nil
		}
	}
	return k.rules.DefaultKgPerUnit * quantity, nil
}
