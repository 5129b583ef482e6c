package normalizer

import (
	"strings"

	"github.com/arbovm/levenshtein"

	"go-food-scanner/pkg/models"
)

// freshnessSynonyms maps normalized labels (lowercase, single spaces, no
// hyphens) to their canonical level. Indonesian labels come from older
// prompt versions.
var freshnessSynonyms = map[string]models.FreshnessLevel{
	"fresh":                  models.FreshnessFresh,
	"very fresh":             models.FreshnessFresh,
	"segar":                  models.FreshnessFresh,
	"sangat segar":           models.FreshnessFresh,
	"medium":                 models.FreshnessMedium,
	"moderate":               models.FreshnessMedium,
	"moderately fresh":       models.FreshnessMedium,
	"fairly fresh":           models.FreshnessMedium,
	"menengah":               models.FreshnessMedium,
	"sedang":                 models.FreshnessMedium,
	"cukup segar":            models.FreshnessMedium,
	"not fresh":              models.FreshnessNotFresh,
	"stale":                  models.FreshnessNotFresh,
	"spoiled":                models.FreshnessNotFresh,
	"rotten":                 models.FreshnessNotFresh,
	"tidak segar":            models.FreshnessNotFresh,
	"busuk":                  models.FreshnessNotFresh,
	"basi":                   models.FreshnessNotFresh,
	"cannot determine":       models.FreshnessUndetermined,
	"undetermined":           models.FreshnessUndetermined,
	"unknown":                models.FreshnessUndetermined,
	"tidak dapat ditentukan": models.FreshnessUndetermined,
}

// canonicalFreshness maps a free-form label onto a known level. Exact synonyms
// win; otherwise the closest synonym within a small edit distance is used so
// that typos like "frsh" still resolve. ok is false when nothing matches.
func canonicalFreshness(label string) (models.FreshnessLevel, bool) {
	key := normalizeLabel(label)
	if key == "" {
		return "", false
	}
	if level, ok := freshnessSynonyms[key]; ok {
		return level, true
	}

	maxDistance := 1
	if len(key) > 5 {
		maxDistance = 2
	}

	best, bestDistance, tie := "", maxDistance+1, false
	for candidate := range freshnessSynonyms {
		d := levenshtein.Distance(key, candidate)
		switch {
		case d < bestDistance:
			best, bestDistance, tie = candidate, d, false
		case d == bestDistance && freshnessSynonyms[candidate] != freshnessSynonyms[best]:
			tie = true
		}
	}
	if best == "" || tie {
		return "", false
	}
	return freshnessSynonyms[best], true
}

func normalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.NewReplacer("-", " ", "_", " ", "/", " ").Replace(label)
	label = strings.Trim(label, " .!\t\n\r\"'")
	return strings.Join(strings.Fields(label), " ")
}
