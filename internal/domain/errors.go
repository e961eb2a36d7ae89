package domain

import "errors"

var (
	// ErrSourceUnavailable marks a single source failure that must not abort the stage.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrGenerationFailed marks a report generation call that produced no content.
	ErrGenerationFailed = errors.New("report generation failed")
	// ErrUnknownStage is returned for stage names outside the daily cycle.
	ErrUnknownStage = errors.New("unknown stage")
)
