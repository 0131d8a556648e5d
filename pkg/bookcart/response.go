package bookcart

import (
	"encoding/json"
	"slices"
)

// Response is the unprocessed result of one storefront call.
type Response struct {
	statusCode int
	body       []byte
}

// NewResponse wraps a status code and body.
func NewResponse(statusCode int, body []byte) *Response {
	return &Response{statusCode: statusCode, body: body}
}

func (r *Response) StatusCode() int { return r.statusCode }
func (r *Response) Body() []byte    { return r.body }
func (r *Response) Text() string    { return string(r.body) }

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return &MalformedBodyError{StatusCode: r.statusCode, Body: bodySnippet(r.body), Err: err}
	}
	return nil
}

// ExpectStatus returns a StatusError unless the status is one of codes.
func (r *Response) ExpectStatus(codes ...int) error {
	if slices.Contains(codes, r.statusCode) {
		return nil
	}
	return &StatusError{StatusCode: r.statusCode, Expected: codes, Body: bodySnippet(r.body)}
}
