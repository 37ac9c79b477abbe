package quality

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreAllPresent(t *testing.T) {
	obj := map[string]any{
		"title":  "Launch plan",
		"topics": []any{"seo", "content"},
	}
	report := Score(obj, []string{"title", "topics"}, nil)

	if !almostEqual(report.Completeness, 1) {
		t.Fatalf("completeness: want=1 got=%v", report.Completeness)
	}
	if !almostEqual(report.Density, 1) {
		t.Fatalf("density: want=1 got=%v", report.Density)
	}
	if !almostEqual(report.KeywordCoverage, 1) {
		t.Fatalf("keyword coverage with no keywords: want=1 got=%v", report.KeywordCoverage)
	}
	if !almostEqual(report.Overall, 1) {
		t.Fatalf("overall: want=1 got=%v", report.Overall)
	}
	if len(report.MissingKeys) != 0 {
		t.Fatalf("missing keys: want=none got=%v", report.MissingKeys)
	}
}

func TestScoreMissingKeys(t *testing.T) {
	obj := map[string]any{
		"title":   "x",
		"summary": "",
	}
	report := Score(obj, []string{"title", "summary", "audience"}, nil)

	if !almostEqual(report.Completeness, 1.0/3.0) {
		t.Fatalf("completeness: want=1/3 got=%v", report.Completeness)
	}
	want := map[string]bool{"summary": true, "audience": true}
	if len(report.MissingKeys) != 2 {
		t.Fatalf("missing keys: want=2 got=%v", report.MissingKeys)
	}
	for _, key := range report.MissingKeys {
		if !want[key] {
			t.Fatalf("unexpected missing key %q", key)
		}
	}
}

func TestScoreKeywordCoverage(t *testing.T) {
	obj := map[string]any{
		"body": "A fintech growth series for startup founders",
	}
	report := Score(obj, nil, []string{"fintech", "founders", "blockchain"})

	if !almostEqual(report.KeywordCoverage, 2.0/3.0) {
		t.Fatalf("keyword coverage: want=2/3 got=%v", report.KeywordCoverage)
	}
}

func TestScoreDensityCountsNestedValues(t *testing.T) {
	obj := map[string]any{
		"a": "filled",
		"b": []any{"x", ""},
		"c": map[string]any{"d": ""},
	}
	report := Score(obj, nil, nil)

	// 4 scalar slots, 2 carry content.
	if !almostEqual(report.Density, 0.5) {
		t.Fatalf("density: want=0.5 got=%v", report.Density)
	}
}

func TestAggregateWeighted(t *testing.T) {
	scores := map[string]float64{"a": 1, "b": 0}
	weights := map[string]float64{"a": 3, "b": 1}

	got := Aggregate(scores, weights)
	if !almostEqual(got, 0.75) {
		t.Fatalf("aggregate: want=0.75 got=%v", got)
	}
}

func TestAggregateDefaultsMissingWeightsToOne(t *testing.T) {
	scores := map[string]float64{"a": 1, "b": 0.5}

	got := Aggregate(scores, map[string]float64{})
	if !almostEqual(got, 0.75) {
		t.Fatalf("aggregate: want=0.75 got=%v", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, nil); got != 0 {
		t.Fatalf("aggregate of nothing: want=0 got=%v", got)
	}
}

func TestFlattenIncludesAllScalars(t *testing.T) {
	obj := map[string]any{
		"a": "alpha",
		"b": []any{"beta", map[string]any{"c": 42}},
	}
	text := Flatten(obj)

	for _, want := range []string{"alpha", "beta", "42"} {
		if !strings.Contains(text, want) {
			t.Fatalf("flattened text missing %q: %q", want, text)
		}
	}
}
