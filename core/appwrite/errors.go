package appwrite

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Error is an error reported by the backend in its documented shape
type Error struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Version string `json:"version"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("appwrite: %d %s: %s", e.Code, e.Type, e.Message)
}

// MalformedError is returned when the backend answers with a body that is not
// in the documented error or model shape.
type MalformedError struct {
	Status int
	Body   string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("appwrite: malformed response with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("appwrite: malformed response with status %d: %q", e.Status, e.Body)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func decodeError(status int, body []byte) error {
	var e Error
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&e); err != nil {
		return &MalformedError{Status: status, Body: truncate(body), Err: err}
	}
	if e.Message == "" && e.Type == "" {
		return &MalformedError{Status: status, Body: truncate(body)}
	}
	if e.Code == 0 {
		e.Code = status
	}
	return &e
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
