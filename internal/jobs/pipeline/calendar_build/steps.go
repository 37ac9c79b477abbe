package calendar_build

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed steps.yaml
var stepsYAML []byte

// StepDef describes one pipeline step as declared in steps.yaml.
type StepDef struct {
	Name          string  `yaml:"name"`
	Title         string  `yaml:"title"`
	Weight        float64 `yaml:"weight"`
	ProgressStart int     `yaml:"progress_start"`
}

type stepsFile struct {
	Steps []StepDef `yaml:"steps"`
}

// Steps returns the ordered step definitions. The order here is the execution
// order; step indexes reported on the job run are 1-based positions in it.
func Steps() ([]StepDef, error) {
	var parsed stepsFile
	if err := yaml.Unmarshal(stepsYAML, &parsed); err != nil {
		return nil, fmt.Errorf("parse steps.yaml: %w", err)
	}
	if len(parsed.Steps) == 0 {
		return nil, fmt.Errorf("steps.yaml has no steps")
	}
	seen := map[string]bool{}
	lastStart := -1
	for i, step := range parsed.Steps {
		if step.Name == "" {
			return nil, fmt.Errorf("step %d has no name", i)
		}
		if seen[step.Name] {
			return nil, fmt.Errorf("duplicate step name %q", step.Name)
		}
		seen[step.Name] = true
		if step.ProgressStart <= lastStart {
			return nil, fmt.Errorf("step %q progress_start %d not increasing", step.Name, step.ProgressStart)
		}
		lastStart = step.ProgressStart
	}
	return parsed.Steps, nil
}

// StepWeights maps step name to its quality weight.
func StepWeights(steps []StepDef) map[string]float64 {
	weights := make(map[string]float64, len(steps))
	for _, step := range steps {
		weights[step.Name] = step.Weight
	}
	return weights
}
