// Package quality scores generated content objects heuristically, without a
// second model call. Scores feed the per-step quality ledger and the overall
// calendar quality figure.
package quality

import (
	"fmt"
	"strings"
)

// Report breaks a score into its components. All values are in [0, 1].
type Report struct {
	Completeness    float64  `json:"completeness"`
	Density         float64  `json:"density"`
	KeywordCoverage float64  `json:"keyword_coverage"`
	Overall         float64  `json:"overall"`
	MissingKeys     []string `json:"missing_keys,omitempty"`
}

const (
	weightCompleteness = 0.5
	weightDensity      = 0.3
	weightKeywords     = 0.2
)

// Score evaluates a generated object. Completeness is the fraction of
// requiredKeys present and non-empty; density is the fraction of all values
// that carry content; keyword coverage is the fraction of keywords appearing
// anywhere in the flattened text. Keywords may be empty, in which case that
// component is treated as full.
func Score(obj map[string]any, requiredKeys []string, keywords []string) Report {
	report := Report{}

	if len(requiredKeys) == 0 {
		report.Completeness = 1
	} else {
		present := 0
		for _, key := range requiredKeys {
			if value, ok := obj[key]; ok && !isEmpty(value) {
				present++
			} else {
				report.MissingKeys = append(report.MissingKeys, key)
			}
		}
		report.Completeness = float64(present) / float64(len(requiredKeys))
	}

	total, filled := 0, 0
	countValues(obj, &total, &filled)
	if total == 0 {
		report.Density = 0
	} else {
		report.Density = float64(filled) / float64(total)
	}

	if len(keywords) == 0 {
		report.KeywordCoverage = 1
	} else {
		text := strings.ToLower(Flatten(obj))
		hits := 0
		for _, keyword := range keywords {
			if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
				hits++
			}
		}
		report.KeywordCoverage = float64(hits) / float64(len(keywords))
	}

	report.Overall = weightCompleteness*report.Completeness +
		weightDensity*report.Density +
		weightKeywords*report.KeywordCoverage
	return report
}

// Aggregate combines per-step overall scores into one weighted figure.
// Weights default to 1 for steps missing from the weight map.
func Aggregate(scores map[string]float64, weights map[string]float64) float64 {
	var sum, weightSum float64
	for step, score := range scores {
		w := 1.0
		if weights != nil {
			if sw, ok := weights[step]; ok && sw > 0 {
				w = sw
			}
		}
		sum += score * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// Flatten renders every scalar in the object as one space-joined string, used
// for keyword checks.
func Flatten(value any) string {
	var sb strings.Builder
	flattenInto(&sb, value)
	return sb.String()
}

func flattenInto(sb *strings.Builder, value any) {
	switch v := value.(type) {
	case nil:
	case string:
		sb.WriteString(v)
		sb.WriteByte(' ')
	case map[string]any:
		for _, item := range v {
			flattenInto(sb, item)
		}
	case []any:
		for _, item := range v {
			flattenInto(sb, item)
		}
	default:
		fmt.Fprintf(sb, "%v ", v)
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func countValues(value any, total, filled *int) {
	switch v := value.(type) {
	case map[string]any:
		for _, item := range v {
			countValues(item, total, filled)
		}
	case []any:
		for _, item := range v {
			countValues(item, total, filled)
		}
	default:
		*total++
		if !isEmpty(value) {
			*filled++
		}
	}
}
