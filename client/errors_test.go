package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantFields map[string]string
	}{
		{"detail string", 404, `{"detail":"Post not found"}`, "Post not found", nil},
		{"validation list", 422, `{"detail":[{"loc":["body","title"],"msg":"too long"}]}`, "", map[string]string{"title": "too long"}},
		{"flat fields", 400, `{"username":["taken"],"email":"bad"}`, "", map[string]string{"username": "taken", "email": "bad"}},
		{"plain text", 500, "Internal Server Error\n", "Internal Server Error", nil},
		{"empty", 502, "", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAPIError(http.MethodGet, "/x", tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Equal(t, tt.wantDetail, e.Detail)
			assert.Equal(t, tt.wantFields, e.Fields)
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	e := &APIError{Method: "GET", Path: "/a", StatusCode: 404, Detail: "Post not found"}
	assert.Equal(t, "GET /a: 404 Post not found", e.Error())

	e = &APIError{Method: "POST", Path: "/b", StatusCode: 422, Fields: map[string]string{"z": "2", "a": "1"}}
	assert.Equal(t, "POST /b: 422 a: 1; z: 2", e.Error())

	e = &APIError{Method: "GET", Path: "/c", StatusCode: 503}
	assert.Equal(t, "GET /c: 503 Service Unavailable", e.Error())
}

func TestAPIError_IsNotFound(t *testing.T) {
	assert.True(t, errors.Is(&APIError{StatusCode: 404}, ErrNotFound))
	assert.False(t, errors.Is(&APIError{StatusCode: 400}, ErrNotFound))
}

func TestDecodeBody(t *testing.T) {
	var v []int
	assert.NoError(t, decodeBody(nil, &v))
	assert.NoError(t, decodeBody([]byte(" null "), &v))
	assert.Nil(t, v)
	assert.NoError(t, decodeBody([]byte("[1,2]"), &v))
	assert.Equal(t, []int{1, 2}, v)
	assert.NoError(t, decodeBody([]byte("{}"), nil))
	assert.Error(t, decodeBody([]byte("{"), &v))
}
