/*
Package httperr normalizes every failure of a request into one typed error and
writes it as JSON.

Backend errors keep their status, message and type. Errors of unknown shape
become a 502 of kind unknown, so a handler never has to guess.
*/
package httperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/logger"
)

// Kind classifies an Error
type Kind string

// The error kinds
const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "notfound"
	KindConflict   Kind = "conflict"
	KindUnknown    Kind = "unknown"
)

// Error is a normalized request error
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Body is the JSON body written for an Error
type Body struct {
	Message string `json:"message"`
	Cause   string `json:"cause"`
}

// New returns a new Error with the kind derived from status
func New(status int, message, cause string) *Error {
	return &Error{Kind: KindForStatus(status), Status: status, Message: message, Cause: cause}
}

// Validation returns a 400 error of kind validation
func Validation(message string, err error) *Error {
	cause := "invalid request"
	if err != nil {
		cause = err.Error()
	}
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message, Cause: cause, Err: err}
}

// KindForStatus maps an HTTP status to an error kind
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindUnknown
	}
}

// Normalize converts any error into an *Error
func Normalize(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var backend *appwrite.Error
	if errors.As(err, &backend) {
		status := backend.Code
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		cause := backend.Type
		if cause == "" {
			cause = "backend_error"
		}
		return &Error{Kind: KindForStatus(status), Status: status, Message: backend.Message, Cause: cause, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUnknown, Status: http.StatusGatewayTimeout, Message: "backend did not answer in time", Cause: "timeout", Err: err}
	}

	return &Error{Kind: KindUnknown, Status: http.StatusBadGateway, Message: "backend returned an unexpected error", Cause: "unknown_error", Err: err}
}

// Write normalizes err, logs it with the request's method and path and writes
// it as JSON body {message, cause}.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	e := Normalize(err)
	rlog := logger.FromContext(r.Context()).WithError(err).WithField("kind", e.Kind)
	if e.Status >= http.StatusInternalServerError {
		rlog.Errorf("Error:S%d at %s %s", e.Status, r.Method, r.URL.Path)
	} else {
		rlog.Infof("Error:S%d at %s %s", e.Status, r.Method, r.URL.Path)
	}

	j, _ := json.Marshal(Body{Message: e.Message, Cause: e.Cause})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	w.Write(j)
}
