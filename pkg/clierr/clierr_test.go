package clierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/habedi/folio/client"
	"github.com/habedi/folio/pkg/validation"
)

func TestError_Unwrap(t *testing.T) {
	tests := []struct {
		name    string
		err     *Error
		wantNil bool
	}{
		{
			name:    "no underlying error",
			err:     New(Validation, "test", nil),
			wantNil: true,
		},
		{
			name:    "with underlying error",
			err:     New(Network, "test", errors.New("underlying")),
			wantNil: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Unwrap()
			if (got == nil) != tt.wantNil {
				t.Errorf("Unwrap() nil = %v, want nil = %v", got == nil, tt.wantNil)
			}
		})
	}
}

func TestError_ErrorsIsAs(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	cliErr := New(Network, "request failed", underlyingErr)

	if cliErr.Error() != "request failed" {
		t.Errorf("Error() = %q", cliErr.Error())
	}
	if !errors.Is(cliErr, underlyingErr) {
		t.Error("errors.Is should find underlying error")
	}
	var target *Error
	if !errors.As(fmt.Errorf("wrapped: %w", cliErr), &target) || target.Type != Network {
		t.Errorf("errors.As should find the Network error, got %v", target)
	}
}

func TestType_ExitCode(t *testing.T) {
	tests := []struct {
		typ  Type
		want int
	}{
		{Validation, 2},
		{NotFound, 3},
		{Unauthenticated, 4},
		{Network, 5},
		{Internal, 1},
		{Type("other"), 1},
	}
	for _, tt := range tests {
		if got := tt.typ.ExitCode(); got != tt.want {
			t.Errorf("%s.ExitCode() = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "api.invalid", IsNotFound: true}
	tests := []struct {
		name     string
		err      error
		wantType Type
		wantMsg  string
	}{
		{
			name:     "field errors",
			err:      fmt.Errorf("register: %w", validation.FieldErrors{"password1": "too short"}),
			wantType: Validation,
			wantMsg:  "Invalid input: password1: too short",
		},
		{
			name:     "session expired",
			err:      fmt.Errorf("failed to create post: %w", client.ErrUnauthenticated),
			wantType: Unauthenticated,
			wantMsg:  sessionMessage,
		},
		{
			name:     "bad credentials",
			err:      &client.APIError{StatusCode: 401, Detail: "Incorrect username or password"},
			wantType: Unauthenticated,
			wantMsg:  "Incorrect username or password",
		},
		{
			name:     "forbidden",
			err:      &client.APIError{StatusCode: 403},
			wantType: Unauthenticated,
			wantMsg:  "Not allowed: Forbidden",
		},
		{
			name:     "not found",
			err:      fmt.Errorf("failed to fetch post 9: %w", &client.APIError{StatusCode: 404, Detail: "Post not found"}),
			wantType: NotFound,
			wantMsg:  "Post not found",
		},
		{
			name:     "server field errors",
			err:      &client.APIError{StatusCode: 422, Fields: map[string]string{"title": "too long"}},
			wantType: Validation,
			wantMsg:  "Invalid input: title: too long",
		},
		{
			name:     "server failure",
			err:      &client.APIError{StatusCode: 500},
			wantType: Internal,
			wantMsg:  "Server error: Internal Server Error",
		},
		{
			name:     "transport",
			err:      &url.Error{Op: "Get", URL: "http://api.invalid/articles/", Err: dnsErr},
			wantType: Network,
		},
		{
			name:     "timeout",
			err:      fmt.Errorf("list: %w", context.DeadlineExceeded),
			wantType: Network,
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantType: Internal,
			wantMsg:  "Operation canceled",
		},
		{
			name:     "already classified",
			err:      fmt.Errorf("outer: %w", New(NotFound, "comment not found", nil)),
			wantType: NotFound,
			wantMsg:  "comment not found",
		},
		{
			name:     "anything else",
			err:      errors.New("disk full"),
			wantType: Internal,
			wantMsg:  "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got == nil {
				t.Fatal("Classify returned nil")
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if tt.wantMsg != "" && got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
			if !errors.Is(got, tt.err) && !errors.As(tt.err, new(*Error)) {
				t.Errorf("classified error should wrap the original")
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}
