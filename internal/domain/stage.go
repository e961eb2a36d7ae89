package domain

import "fmt"

// Stage names one phase of the daily cycle.
type Stage string

const (
	StageCollect  Stage = "collect"
	StageProcess  Stage = "process"
	StageGenerate Stage = "generate"
)

// Stages lists the daily cycle in execution order.
var Stages = []Stage{StageCollect, StageProcess, StageGenerate}

// ParseStage validates a user supplied stage name.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// Predecessor returns the stage that must have succeeded today before s may run.
func (s Stage) Predecessor() (Stage, bool) {
	switch s {
	case StageProcess:
		return StageCollect, true
	case StageGenerate:
		return StageProcess, true
	default:
		return "", false
	}
}
