package publishers

import (
	"time"

	"github.com/samvad-hq/bookcart-smoke/internal/domain"
)

func failedRunEvent() Event {
	started := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	return NewEvent(domain.RunReport{
		RunID:      "run-1",
		BaseURL:    "http://bookcart.test/api",
		Username:   "testuser_1792143000",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Steps: []domain.StepResult{
			{Name: "register", Passed: true, StatusCode: 200},
			{Name: "login", Passed: false, StatusCode: 401, Message: "Login failed"},
		},
		Passed: false,
	})
}
