package smoke

import (
	"fmt"
	"net/http"

	"github.com/samvad-hq/bookcart-smoke/pkg/bookcart"
)

// AssertionError is a smoke expectation that did not hold. Body carries the
// response text for diagnosis.
type AssertionError struct {
	Step       string
	Message    string
	StatusCode int
	Body       string
}

func (e *AssertionError) Error() string {
	if e.Body == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Body)
}

func expectOK(step string, resp *bookcart.Response, msg string) error {
	if resp.StatusCode() == http.StatusOK {
		return nil
	}
	return &AssertionError{Step: step, Message: msg, StatusCode: resp.StatusCode(), Body: resp.Text()}
}
