package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated means the request needs a login: there was no usable session,
	// or the session could not be refreshed and has been cleared.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNotFound matches any *APIError with status 404.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the server's message, if it sent one.
	Detail string
	// Fields holds per-field messages from validation failures.
	Fields map[string]string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" && len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg = strings.Join(parts, "; ")
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// newAPIError decodes the error payload. The API answers with {"detail": "..."},
// {"detail": [{"loc": [...], "msg": "..."}]} for request validation, or a flat
// {"field": "message"} map.
func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status}

	var withDetail struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &withDetail); err == nil && len(withDetail.Detail) > 0 {
		var s string
		if json.Unmarshal(withDetail.Detail, &s) == nil {
			e.Detail = s
			return e
		}
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if json.Unmarshal(withDetail.Detail, &items) == nil && len(items) > 0 {
			e.Fields = make(map[string]string, len(items))
			for _, it := range items {
				field := "request"
				if len(it.Loc) > 0 {
					field = fmt.Sprint(it.Loc[len(it.Loc)-1])
				}
				e.Fields[field] = it.Msg
			}
			return e
		}
	}

	var flat map[string]any
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		e.Fields = make(map[string]string, len(flat))
		for k, v := range flat {
			switch val := v.(type) {
			case string:
				e.Fields[k] = val
			case []any:
				msgs := make([]string, 0, len(val))
				for _, m := range val {
					msgs = append(msgs, fmt.Sprint(m))
				}
				e.Fields[k] = strings.Join(msgs, " ")
			default:
				e.Fields[k] = fmt.Sprint(val)
			}
		}
		return e
	}

	e.Detail = strings.TrimSpace(string(body[:min(len(body), 200)]))
	return e
}
