package normalizer

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"go-food-scanner/pkg/models"
)

// MaxEstimatedCalories caps calorie estimates so absurd values still fit an int.
const MaxEstimatedCalories = math.MaxInt32

const (
	DefaultFoodName          = "Unknown food"
	DefaultFreshnessScore    = 50
	DefaultEstimatedCalories = 0
	NotAvailable             = "N/A"
	DefaultRecommendation    = "Try taking a photo with better lighting"
)

// Outcome is the normalized result plus how it was obtained.
type Outcome struct {
	Result models.AnalysisResult

	// Fallback is true when no JSON object could be parsed and Result is the
	// default record.
	Fallback bool

	Source Source

	// Defaulted lists the fields that were absent or unusable in the parsed
	// object. Empty on fallback.
	Defaulted []string
}

// Normalizer converts free-text model replies into complete AnalysisResults.
// It never fails.
type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Default returns the fallback record with the given summary.
func Default(summary string) models.AnalysisResult {
	return models.AnalysisResult{
		FoodName:          DefaultFoodName,
		FreshnessLevel:    models.FreshnessUndetermined,
		FreshnessScore:    DefaultFreshnessScore,
		EstimatedCalories: DefaultEstimatedCalories,
		NutritionSummary:  defaultNutrition(),
		AnalysisSummary:   summary,
		Recommendations:   []string{DefaultRecommendation},
	}
}

func defaultNutrition() models.NutritionSummary {
	return models.NutritionSummary{
		Protein: NotAvailable,
		Carbs:   NotAvailable,
		Fat:     NotAvailable,
		Fiber:   NotAvailable,
	}
}

// Normalize extracts the JSON payload from reply and fills every field,
// substituting defaults for anything missing. When no JSON object can be
// parsed the default record is returned with the raw reply as its summary.
func (n *Normalizer) Normalize(reply string) Outcome {
	candidate, source := ExtractCandidate(reply)

	candidate = strings.TrimSpace(candidate)
	if !gjson.Valid(candidate) {
		return Outcome{Result: Default(reply), Fallback: true, Source: source}
	}
	obj := gjson.Parse(candidate)
	if !obj.IsObject() {
		return Outcome{Result: Default(reply), Fallback: true, Source: source}
	}

	b := builder{obj: obj}
	result := models.AnalysisResult{
		FoodName:          b.foodName(),
		EstimatedCalories: b.calories(),
		NutritionSummary:  b.nutrition(),
		AnalysisSummary:   b.summary(reply),
		Recommendations:   b.recommendations(),
	}
	score, scoreGiven := b.score()
	result.FreshnessScore = score
	result.FreshnessLevel = b.level(score, scoreGiven)

	return Outcome{Result: result, Source: source, Defaulted: b.defaulted}
}

// builder reads fields from a parsed object and records which ones defaulted.
type builder struct {
	obj       gjson.Result
	defaulted []string
}

// field returns the named value, or ok=false when it is absent or null.
func (b *builder) field(name string) (gjson.Result, bool) {
	r := b.obj.Get(name)
	if !r.Exists() || r.Type == gjson.Null {
		return r, false
	}
	return r, true
}

func (b *builder) markDefault(name string) {
	b.defaulted = append(b.defaulted, name)
}

func (b *builder) foodName() string {
	r, ok := b.field("food_name")
	if ok && (r.Type == gjson.String || r.Type == gjson.Number) {
		if name := strings.TrimSpace(r.String()); name != "" {
			return name
		}
	}
	b.markDefault("food_name")
	return DefaultFoodName
}

func (b *builder) score() (int, bool) {
	r, ok := b.field("freshness_score")
	if ok {
		if v, ok := numberOf(r); ok {
			return int(math.Round(math.Max(0, math.Min(v, 100)))), true
		}
	}
	b.markDefault("freshness_score")
	return DefaultFreshnessScore, false
}

// level canonicalizes the reported label. An absent label gets the default; an
// unrecognized one falls back to the band of a reported score.
func (b *builder) level(score int, scoreGiven bool) models.FreshnessLevel {
	r, ok := b.field("freshness_level")
	if !ok {
		b.markDefault("freshness_level")
		return models.FreshnessUndetermined
	}
	if r.Type == gjson.String {
		if level, ok := canonicalFreshness(r.String()); ok {
			return level
		}
	}
	b.markDefault("freshness_level")
	if scoreGiven {
		return models.LevelForScore(score)
	}
	return models.FreshnessUndetermined
}

func (b *builder) calories() int {
	r, ok := b.field("estimated_calories")
	if ok {
		if v, ok := numberOf(r); ok {
			return int(math.Round(math.Max(0, math.Min(v, MaxEstimatedCalories))))
		}
	}
	b.markDefault("estimated_calories")
	return DefaultEstimatedCalories
}

var nutrientKeys = []struct {
	field   string
	aliases []string
	set     func(n *models.NutritionSummary, v string)
}{
	{"protein", []string{"protein", "proteins", "protein_g"}, func(n *models.NutritionSummary, v string) { n.Protein = v }},
	{"carbs", []string{"carbs", "carbohydrates", "carbohydrate", "karbohidrat"}, func(n *models.NutritionSummary, v string) { n.Carbs = v }},
	{"fat", []string{"fat", "fats", "lemak"}, func(n *models.NutritionSummary, v string) { n.Fat = v }},
	{"fiber", []string{"fiber", "fibre", "serat"}, func(n *models.NutritionSummary, v string) { n.Fiber = v }},
}

func (b *builder) nutrition() models.NutritionSummary {
	out := defaultNutrition()
	r, ok := b.field("nutrition_summary")
	if !ok || !r.IsObject() {
		b.markDefault("nutrition_summary")
		return out
	}

	values := make(map[string]gjson.Result)
	r.ForEach(func(key, value gjson.Result) bool {
		values[strings.ToLower(strings.TrimSpace(key.String()))] = value
		return true
	})

	for _, nk := range nutrientKeys {
		found := false
		for _, alias := range nk.aliases {
			v, ok := values[alias]
			if !ok {
				continue
			}
			if s, ok := quantityOf(v); ok {
				nk.set(&out, s)
				found = true
				break
			}
		}
		if !found {
			b.markDefault("nutrition_summary." + nk.field)
		}
	}
	return out
}

func (b *builder) summary(reply string) string {
	r, ok := b.field("analysis_summary")
	if ok && r.Type == gjson.String {
		return r.String()
	}
	b.markDefault("analysis_summary")
	return reply
}

func (b *builder) recommendations() []string {
	r, ok := b.field("recommendations")
	if !ok {
		b.markDefault("recommendations")
		return []string{DefaultRecommendation}
	}

	switch {
	case r.IsArray():
		out := []string{}
		for _, item := range r.Array() {
			if item.Type != gjson.String {
				continue
			}
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	case r.Type == gjson.String:
		if s := strings.TrimSpace(r.String()); s != "" {
			return []string{s}
		}
		return []string{}
	default:
		b.markDefault("recommendations")
		return []string{DefaultRecommendation}
	}
}

var leadingNumber = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// numberOf reads a JSON number or the first number inside a string such as
// "85", "85%" or "1,250 kcal". Commas are read as thousands separators.
// Non-finite values count as absent.
func numberOf(r gjson.Result) (float64, bool) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Float()
	case gjson.String:
		m := leadingNumber.FindString(r.String())
		if m == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// quantityOf renders a nutrient value as a display string. Bare numbers are
// taken as grams.
func quantityOf(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		s := strings.TrimSpace(r.String())
		return s, s != ""
	case gjson.Number:
		return strconv.FormatFloat(r.Float(), 'f', -1, 64) + "g", true
	default:
		return "", false
	}
}
