package sustainability

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deffeddef/invoice-extractor-app/constants"
)

// Rules are the keyword tables behind the Keyword provider.
type Rules struct {
	// Ratings are checked in order against the vendor name (case-sensitive substring).
	Ratings       []RatingRule `yaml:"ratings"`
	DefaultRating string       `yaml:"default_rating"`
	// BCorp lists vendor name fragments of certified B Corporations (case-sensitive).
	BCorp []string `yaml:"b_corp"`
	// EcoLabels lists lowercase description fragments of eco-labeled products.
	EcoLabels []string `yaml:"eco_labels"`
	// Emissions are checked in order against the lowercased description.
	Emissions        []EmissionRule `yaml:"emissions"`
	DefaultKgPerUnit float64        `yaml:"default_kg_per_unit"`
}

type RatingRule struct {
	Contains string `yaml:"contains"`
	Rating   string `yaml:"rating"`
}

type EmissionRule struct {
	Keyword   string  `yaml:"keyword"`
	KgPerUnit float64 `yaml:"kg_per_unit"`
}

// DefaultRules are the built-in tables.
func DefaultRules() Rules {
	return Rules{
		Ratings:       []RatingRule{{Contains: "GreenCorp", Rating: constants.RatingGold}},
		DefaultRating: constants.RatingBronze,
		BCorp:         []string{"EcoSolutions"},
		EcoLabels:     []string{"recycled paper"},
		Emissions: []EmissionRule{
			{Keyword: "electronics", KgPerUnit: 50},
			{Keyword: "transport", KgPerUnit: 10},
		},
		DefaultKgPerUnit: 1,
	}
}

// LoadRules reads a YAML rules file. Sections missing from the file keep
// their default tables.
func LoadRules(path string) (Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}
	var fromFile Rules
	if err := yaml.Unmarshal(b, &fromFile); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}

	r := DefaultRules()
	if fromFile.Ratings != nil {
		r.Ratings = fromFile.Ratings
	}
	if fromFile.DefaultRating != "" {
		r.DefaultRating = fromFile.DefaultRating
	}
	if fromFile.BCorp != nil {
		r.BCorp = fromFile.BCorp
	}
	if fromFile.EcoLabels != nil {
		r.EcoLabels = fromFile.EcoLabels
	}
	if fromFile.Emissions != nil {
		r.Emissions = fromFile.Emissions
	}
	if fromFile.DefaultKgPerUnit != 0 {
		r.DefaultKgPerUnit = fromFile.DefaultKgPerUnit
	}
	return r, nil
}
