package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinThreads = 1
	MaxThreads = 20

	MaxTitleLength    = 200
	MinUsernameLength = 3
	MaxUsernameLength = 150
	MinPasswordLength = 4
)

// Categories are the post categories the API accepts.
var Categories = []string{"programming", "django", "python", "web", "other"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their form name so messages line up with flags and API fields
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return ValidateCategory(fl.Field().String(), Categories) == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type RegisterForm struct {
	Username  string `form:"username" validate:"required,min=3,max=150"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password1 string `form:"password1" validate:"required,min=4"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

type PostForm struct {
	Title    string `form:"title" validate:"required,max=200"`
	Content  string `form:"content" validate:"required"`
	Category string `form:"category" validate:"required,category"`
}

// PostEditForm validates only the fields being changed.
type PostEditForm struct {
	Title    *string `form:"title" validate:"omitnil,min=1,max=200"`
	Content  *string `form:"content" validate:"omitnil,min=1"`
	Category *string `form:"category" validate:"omitnil,category"`
}

type CommentForm struct {
	Text string `form:"text" validate:"required"`
}

// Struct validates a form and returns FieldErrors, or nil when the form is valid.
func Struct(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("cannot validate form: %w", err)
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "email":
		return "Enter a valid email address"
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "Enter a valid URL"
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "category":
		return fmt.Sprintf("Unknown category %q (must be one of: %s)", fe.Value(), strings.Join(Categories, ", "))
	default:
		return fmt.Sprintf("Failed the %s check", fe.Tag())
	}
}

func ValidateThreadCount(threads int) error {
	if threads < MinThreads || threads > MaxThreads {
		return fmt.Errorf("thread count must be between %d and %d, got %d", MinThreads, MaxThreads, threads)
	}
	return nil
}

func ValidateID(kind string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%s ID must be a positive integer, got %d", kind, id)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

func ValidateCategory(category string, known []string) error {
	for _, k := range known {
		if category == k {
			return nil
		}
	}
	return fmt.Errorf("invalid category: %s (must be one of: %s)", category, strings.Join(known, ", "))
}
