package calendar_build

import (
	"testing"
	"time"
)

var wantStepOrder = []string{
	"strategy_analysis",
	"gap_analysis",
	"audience_platform",
	"calendar_framework",
	"content_pillars",
	"platform_strategy",
	"weekly_themes",
	"daily_planning",
	"content_recommendations",
	"performance_optimization",
	"validation",
	"final_assembly",
}

func TestStepsOrderAndCount(t *testing.T) {
	steps, err := Steps()
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != len(wantStepOrder) {
		t.Fatalf("step count: want=%d got=%d", len(wantStepOrder), len(steps))
	}
	for i, step := range steps {
		if step.Name != wantStepOrder[i] {
			t.Fatalf("step %d: want=%q got=%q", i, wantStepOrder[i], step.Name)
		}
	}
}

func TestStepsProgressStrictlyIncreasing(t *testing.T) {
	steps, err := Steps()
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	last := -1
	for _, step := range steps {
		if step.ProgressStart <= last {
			t.Fatalf("step %q progress_start %d not above previous %d", step.Name, step.ProgressStart, last)
		}
		if step.ProgressStart < 0 || step.ProgressStart > 100 {
			t.Fatalf("step %q progress_start %d out of range", step.Name, step.ProgressStart)
		}
		last = step.ProgressStart
	}
}

func TestStepWeightsCoverEveryStep(t *testing.T) {
	steps, err := Steps()
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	weights := StepWeights(steps)
	for _, step := range steps {
		w, ok := weights[step.Name]
		if !ok {
			t.Fatalf("missing weight for step %q", step.Name)
		}
		if w <= 0 {
			t.Fatalf("step %q has non-positive weight %v", step.Name, w)
		}
	}
}

func TestNextMondayAlwaysMonday(t *testing.T) {
	for _, raw := range []string{
		"2026-08-24T00:00:00Z", // a Monday
		"2026-08-29T15:04:05Z", // a Saturday
		"2026-08-30T23:59:59Z", // a Sunday
	} {
		base, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		got := nextMonday(base)
		if got.Weekday() != time.Monday {
			t.Fatalf("nextMonday(%s): got weekday %s", raw, got.Weekday())
		}
		if !got.After(base) {
			t.Fatalf("nextMonday(%s) did not move forward: %s", raw, got)
		}
		if got.Sub(base) > 7*24*time.Hour {
			t.Fatalf("nextMonday(%s) more than a week out: %s", raw, got)
		}
	}
}

func TestNextMondayHonorsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	from := time.Date(2026, 8, 28, 23, 30, 0, 0, loc)

	got := nextMonday(from)
	if got.Weekday() != time.Monday {
		t.Fatalf("weekday: want=Monday got=%s", got.Weekday())
	}
	if got.Location() != loc {
		t.Fatalf("location: want=%v got=%v", loc, got.Location())
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Fatalf("not local midnight: %s", got)
	}
}
