package domain

import "time"

// Domain contains core models and interfaces.

// StepResult is the outcome of one smoke step.
type StepResult struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// RunReport summarizes one smoke run against a storefront.
type RunReport struct {
	RunID      string       `json:"run_id"`
	BaseURL    string       `json:"base_url"`
	Username   string       `json:"username"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`
	Passed     bool         `json:"passed"`
}

// FailedStep returns the first failed step, if any.
func (r RunReport) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if !s.Passed {
			return s, true
		}
	}
	return StepResult{}, false
}

// Duration is the wall time of the run.
func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
