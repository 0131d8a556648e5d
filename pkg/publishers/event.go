package publishers

import (
	"time"

	"github.com/samvad-hq/bookcart-smoke/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	RunID       string           `json:"run_id"`
	BaseURL     string           `json:"base_url"`
	Passed      bool             `json:"passed"`
	FailedStep  string           `json:"failed_step,omitempty"`
	Report      domain.RunReport `json:"report"`
	PublishedAt time.Time        `json:"published_at"`
}

// NewEvent constructs an Event for a finished run.
func NewEvent(report domain.RunReport) Event {
	evt := Event{
		RunID:       report.RunID,
		BaseURL:     report.BaseURL,
		Passed:      report.Passed,
		Report:      report,
		PublishedAt: time.Now().UTC(),
	}
	if step, failed := report.FailedStep(); failed {
		evt.FailedStep = step.Name
	}
	return evt
}

// attributes are the routing attributes attached to queue/topic messages.
func (e Event) attributes() map[string]string {
	passed := "false"
	if e.Passed {
		passed = "true"
	}
	return map[string]string{
		"run_id": e.RunID,
		"passed": passed,
	}
}
