// Package sustainability scores invoice line items and vendors.
//
// Lookups (vendor ESG rating, B-Corp status, EU Ecolabel, CO2 estimate) sit
// behind single-method interfaces so the keyword stub, HTTP clients and the
// SQLite vendor registry can be swapped per capability.
package sustainability

import (
	"context"
	"errors"
)

// ErrNoData reports that a provider has nothing on record for the query.
var ErrNoData = errors.New("no sustainability data")

// RatingProvider returns a vendor's ESG rating ("Platinum", "Gold", ...).
type RatingProvider interface {
	ESGRating(ctx context.Context, vendor string) (string, error)
}

// CertificationProvider reports whether a vendor is a certified B Corporation.
type CertificationProvider interface {
	IsBCorp(ctx context.Context, vendor string) (bool, error)
}

// EcoLabelProvider reports whether an item description names an eco-labeled product.
type EcoLabelProvider interface {
	HasEcoLabel(ctx context.Context, description string) (bool, error)
}

// EmissionProvider estimates emissions in kgCO2e for quantity units of an item.
type EmissionProvider interface {
	EstimateCO2(ctx context.Context, description string, quantity float64) (float64, error)
}

// Providers groups one implementation per capability. Nil fields fall back
// to the keyword stub.
type Providers struct {
	Ratings        RatingProvider
	Certifications CertificationProvider
	EcoLabels      EcoLabelProvider
	Emissions      EmissionProvider
}

func (p Providers) withDefaults() Providers {
	var stub *Keyword
	get := func() *Keyword {
		if stub == nil {
			stub = NewKeyword(DefaultRules())
		}
		return stub
	}
	if p.Ratings == nil {
		p.Ratings = get()
	}
	if p.Certifications == nil {
		p.Certifications = get()
	}
	if p.EcoLabels == nil {
		p.EcoLabels = get()
	}
	if p.Emissions == nil {
		p.Emissions = get()
	}
	return p
}
