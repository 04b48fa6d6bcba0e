package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %v", err)
	return fe
}

func TestValidateThreadCount(t *testing.T) {
	tests := []struct {
		name    string
		threads int
		wantErr bool
	}{
		{"valid minimum", 1, false},
		{"valid middle", 10, false},
		{"valid maximum", 20, false},
		{"too low", 0, true},
		{"negative", -1, true},
		{"too high", 21, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreadCount(tt.threads)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateThreadCount(%d) error = %v, wantErr %v", tt.threads, err, tt.wantErr)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      int
		wantErr bool
	}{
		{"valid positive", 123, false},
		{"valid one", 1, false},
		{"zero", 0, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("post", tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%d) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
	assert.Contains(t, ValidateID("comment", 0).Error(), "comment ID")
}

func TestValidateNonEmptyString(t *testing.T) {
	assert.NoError(t, ValidateNonEmptyString("text", "hi"))
	assert.EqualError(t, ValidateNonEmptyString("text", ""), "text cannot be empty")
	assert.Error(t, ValidateNonEmptyString("text", "   "))
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory("web", Categories))
	err := ValidateCategory("cooking", Categories)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "programming, django, python, web, other")
	assert.Error(t, ValidateCategory("web", nil))
}

func TestLoginForm(t *testing.T) {
	assert.NoError(t, Struct(LoginForm{Username: "alice", Password: "x"}))

	fe := fieldErrors(t, Struct(LoginForm{}))
	assert.Equal(t, FieldErrors{"username": "This field is required", "password": "This field is required"}, fe)
}

func TestRegisterForm(t *testing.T) {
	valid := RegisterForm{Username: "alice", Password1: "abcd", Password2: "abcd"}
	assert.NoError(t, Struct(valid))

	withEmail := valid
	withEmail.Email = "alice@example.com"
	assert.NoError(t, Struct(withEmail))

	tests := []struct {
		name  string
		form  RegisterForm
		field string
		want  string
	}{
		{"short username", RegisterForm{Username: "al", Password1: "abcd", Password2: "abcd"}, "username", "Must be at least 3 characters"},
		{"long username", RegisterForm{Username: strings.Repeat("a", 151), Password1: "abcd", Password2: "abcd"}, "username", "Must be at most 150 characters"},
		{"bad email", RegisterForm{Username: "alice", Email: "nope", Password1: "abcd", Password2: "abcd"}, "email", "Enter a valid email address"},
		{"short password", RegisterForm{Username: "alice", Password1: "abc", Password2: "abc"}, "password1", "Must be at least 4 characters"},
		{"mismatch", RegisterForm{Username: "alice", Password1: "abcd", Password2: "abce"}, "password2", "Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := fieldErrors(t, Struct(tt.form))
			assert.Equal(t, tt.want, fe[tt.field])
		})
	}
}

func TestRegisterForm_UsernameCountsRunes(t *testing.T) {
	assert.NoError(t, Struct(RegisterForm{Username: "äöü", Password1: "abcd", Password2: "abcd"}))
}

func TestPostForm(t *testing.T) {
	assert.NoError(t, Struct(PostForm{Title: "Go", Content: "body", Category: "web"}))

	fe := fieldErrors(t, Struct(PostForm{Title: strings.Repeat("x", 201), Category: "cooking"}))
	assert.Equal(t, "Must be at most 200 characters", fe["title"])
	assert.Equal(t, "This field is required", fe["content"])
	assert.Contains(t, fe["category"], `Unknown category "cooking"`)
}

func TestPostEditForm(t *testing.T) {
	assert.NoError(t, Struct(PostEditForm{}))
	assert.NoError(t, Struct(PostEditForm{Title: ptr("New"), Category: ptr("python")}))

	fe := fieldErrors(t, Struct(PostEditForm{Title: ptr(""), Content: ptr(""), Category: ptr("x")}))
	assert.Equal(t, "Must be at least 1 characters", fe["title"])
	assert.Equal(t, "Must be at least 1 characters", fe["content"])
	assert.Contains(t, fe["category"], "Unknown category")
}

func TestCommentForm(t *testing.T) {
	assert.NoError(t, Struct(CommentForm{Text: "Nice post"}))
	fe := fieldErrors(t, Struct(CommentForm{}))
	assert.Equal(t, "This field is required", fe["text"])
}

func TestFieldErrors_Error(t *testing.T) {
	fe := FieldErrors{"password": "too short", "email": "bad"}
	assert.Equal(t, "email: bad; password: too short", fe.Error())
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct(42)
	require.Error(t, err)
	var fe FieldErrors
	assert.False(t, errors.As(err, &fe))
}
