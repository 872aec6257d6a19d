// Package aqhi maps Air Quality Health Index values to the health-risk
// categories and colour scale published with the index.
package aqhi

import "math"

// Risk is an AQHI health-risk category.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
	RiskVeryHigh Risk = "very_high"
)

// Round returns the integer index used for categorisation. Observations are
// published with one decimal; the scale starts at 1.
func Round(index float64) int {
	i := int(math.Round(index))
	if i < 1 {
		return 1
	}
	return i
}

// GetRisk returns the health-risk category for an index value.
func GetRisk(index float64) Risk {
	switch i := Round(index); {
	case i <= 3:
		return RiskLow
	case i <= 6:
		return RiskModerate
	case i <= 10:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

var riskLabels = map[Risk]map[string]string{
	RiskLow:      {"english": "Low Risk", "french": "Risque faible"},
	RiskModerate: {"english": "Moderate Risk", "french": "Risque modéré"},
	RiskHigh:     {"english": "High Risk", "french": "Risque élevé"},
	RiskVeryHigh: {"english": "Very High Risk", "french": "Risque très élevé"},
}

// Label returns the display label of r in the given language ("english" or
// "french"). Unknown languages fall back to English.
func (r Risk) Label(language string) string {
	labels, ok := riskLabels[r]
	if !ok {
		return ""
	}
	if l, ok := labels[language]; ok {
		return l
	}
	return labels["english"]
}

// GetColor returns the colour published for an index value.
func GetColor(index float64) string {
	switch Round(index) {
	case 1:
		return "#00ccff"
	case 2:
		return "#0099cc"
	case 3:
		return "#006699"
	case 4:
		return "#ffff00"
	case 5:
		return "#ffcc00"
	case 6:
		return "#ff9933"
	case 7:
		return "#ff6666"
	case 8:
		return "#ff0000"
	case 9:
		return "#cc0000"
	case 10:
		return "#990000"
	default:
		return "#660000" // 10+
	}
}
