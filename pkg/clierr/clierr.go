package clierr

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/habedi/folio/client"
	"github.com/habedi/folio/pkg/validation"
)

// Type categorizes a CLI-facing error for consistent messaging & exit codes.
type Type string

const (
	Validation      Type = "validation"
	NotFound        Type = "not_found"
	Unauthenticated Type = "unauthenticated"
	Network         Type = "network"
	Internal        Type = "internal"
)

// ExitCode is the process exit status used for errors of this type.
func (t Type) ExitCode() int {
	switch t {
	case Validation:
		return 2
	case NotFound:
		return 3
	case Unauthenticated:
		return 4
	case Network:
		return 5
	default:
		return 1
	}
}

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }

const sessionMessage = "You are not logged in or your session has expired. Please log in again."

// Classify turns any error from the client stack into a user-facing Error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return New(Validation, "Invalid input: "+fe.Error(), err)
	}
	if errors.Is(err, client.ErrUnauthenticated) {
		return New(Unauthenticated, sessionMessage, err)
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr, err)
	}

	if errors.Is(err, context.Canceled) {
		return New(Internal, "Operation canceled", err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return New(Network, "Could not reach the API: "+err.Error(), err)
	}
	return New(Internal, err.Error(), err)
}

func fromAPIError(apiErr *client.APIError, err error) *Error {
	msg := apiErr.Detail
	if msg == "" && len(apiErr.Fields) > 0 {
		msg = validation.FieldErrors(apiErr.Fields).Error()
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		if msg == "" {
			msg = sessionMessage
		}
		return New(Unauthenticated, msg, err)
	case apiErr.StatusCode == http.StatusForbidden:
		return New(Unauthenticated, "Not allowed: "+orStatus(msg, apiErr.StatusCode), err)
	case apiErr.StatusCode == http.StatusNotFound:
		return New(NotFound, orStatus(msg, apiErr.StatusCode), err)
	case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity:
		return New(Validation, "Invalid input: "+orStatus(msg, apiErr.StatusCode), err)
	default:
		return New(Internal, "Server error: "+orStatus(msg, apiErr.StatusCode), err)
	}
}

func orStatus(msg string, status int) string {
	if msg != "" {
		return msg
	}
	return http.StatusText(status)
}
