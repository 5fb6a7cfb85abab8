package constants

// ESGRisk is the invoice-level risk label produced by the sustainability scorer.
// The set is open-ended; these are the values the scorer emits.
type ESGRisk string

const (
	ESGRiskLow       ESGRisk = "Low"
	ESGRiskMediumLow ESGRisk = "Medium-Low"
	ESGRiskMedium    ESGRisk = "Medium"
	ESGRiskHigh      ESGRisk = "High"
)

// EcoVadis-style vendor ratings, best first.
const (
	RatingPlatinum = "Platinum"
	RatingGold     = "Gold"
	RatingSilver   = "Silver"
	RatingBronze   = "Bronze"
)

// Scoring constants for line items.
const (
	BaseItemScore      = 50.0
	EcoLabelBoost      = 20.0
	HighEmissionCut    = 15.0
	MediumEmissionCut  = 5.0
	LowEmissionBoost   = 10.0
	MinItemScore       = 0.0
	MaxItemScore       = 100.0
	HighEmissionKgCO2e = 20.0 // strictly above => CO2-intensive
	LowEmissionKgCO2e  = 5.0  // at or below => low emission
)
