package models

// FreshnessLevel is the freshness category reported for a food item.
type FreshnessLevel string

const (
	FreshnessFresh        FreshnessLevel = "fresh"
	FreshnessMedium       FreshnessLevel = "medium"
	FreshnessNotFresh     FreshnessLevel = "not-fresh"
	FreshnessUndetermined FreshnessLevel = "Cannot determine"
)

// FreshnessLevels lists every value a result may carry.
var FreshnessLevels = []FreshnessLevel{
	FreshnessFresh,
	FreshnessMedium,
	FreshnessNotFresh,
	FreshnessUndetermined,
}

// IsValid reports whether l is one of the known freshness levels.
func (l FreshnessLevel) IsValid() bool {
	for _, known := range FreshnessLevels {
		if l == known {
			return true
		}
	}
	return false
}

// LevelForScore maps a 0-100 freshness score onto its band:
// 80-100 fresh, 50-79 medium, 0-49 not-fresh.
func LevelForScore(score int) FreshnessLevel {
	switch {
	case score >= 80:
		return FreshnessFresh
	case score >= 50:
		return FreshnessMedium
	default:
		return FreshnessNotFresh
	}
}

// NutritionSummary holds per-portion macro estimates as display strings
// (e.g. "15g") or "N/A".
type NutritionSummary struct {
	Protein string `json:"protein" validate:"required"`
	Carbs   string `json:"carbs" validate:"required"`
	Fat     string `json:"fat" validate:"required"`
	Fiber   string `json:"fiber" validate:"required"`
}

// AnalysisResult is the canonical response of the analyze endpoint. Every field
// is always populated.
type AnalysisResult struct {
	FoodName          string           `json:"food_name" validate:"required"`
	FreshnessLevel    FreshnessLevel   `json:"freshness_level" validate:"freshness_level"`
	FreshnessScore    int              `json:"freshness_score" validate:"min=0,max=100"`
	EstimatedCalories int              `json:"estimated_calories" validate:"min=0"`
	NutritionSummary  NutritionSummary `json:"nutrition_summary"`
	AnalysisSummary   string           `json:"analysis_summary"`
	Recommendations   []string         `json:"recommendations" validate:"required,dive,required"`
}

// ValidationError represents a structured validation error
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
