// Package validation turns request payloads into either a validated value or a
// field-indexed set of error messages.
//
// Static rules (required, max length, ranges, URL format) are declared as struct tags and
// checked by go-playground/validator. Rules that need the database (a referenced row
// exists, a value is unique) are checked with Exists and Unique. Both kinds of failure are
// collected into the same Errors map, which the HTTP layer renders as a 422 response.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Errors maps a request field (its json name) to the messages describing why it failed.
// It implements error so handlers can return it like any other error.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Merge copies every message from other into e.
func (e Errors) Merge(other Errors) {
	for field, messages := range other {
		e[field] = append(e[field], messages...)
	}
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Error summarises the set as the first message plus a count of the rest,
// e.g. "The name field is required. (and 2 more errors)".
func (e Errors) Error() string {
	fields := e.Fields()
	if len(fields) == 0 {
		return "The given data was invalid."
	}

	total := 0
	for _, messages := range e {
		total += len(messages)
	}

	first := e[fields[0]][0]
	switch rest := total - 1; {
	case rest == 1:
		return fmt.Sprintf("%s (and 1 more error)", first)
	case rest > 1:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	default:
		return first
	}
}

// Result is either a validated value or the reasons validation failed. Exactly one of
// the two is meaningful; use Valid to tell which.
type Result[T any] struct {
	value T
	errs  Errors
}

// Ok wraps a value that passed validation.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Fail wraps a set of field errors. An empty set is treated as a failure with a
// generic message so callers can never mistake it for success.
func Fail[T any](errs Errors) Result[T] {
	if len(errs) == 0 {
		errs = Errors{"": {"The given data was invalid."}}
	}
	return Result[T]{errs: errs}
}

// Valid reports whether the result holds a value.
func (r Result[T]) Valid() bool { return len(r.errs) == 0 }

// Value returns the validated value; it is the zero value when the result is invalid.
func (r Result[T]) Value() T { return r.value }

// Errors returns the field errors; nil when the result is valid.
func (r Result[T]) Errors() Errors { return r.errs }

// Unwrap converts the result into Go's usual (value, error) pair. The error, when
// non-nil, is always an Errors value.
func (r Result[T]) Unwrap() (T, error) {
	if r.Valid() {
		return r.value, nil
	}
	var zero T
	return zero, r.errs
}

// Validator checks struct tags and renders failures as readable messages.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator that reports fields by their json name and knows the
// "notfuture" rule (an integer year no later than the current one).
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report "coach_first_name", not "CoachFirstName".
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(time.Now().Year())
	})

	return &Validator{validate: v}
}

// Struct validates s and returns nil when every rule passes.
func (v *Validator) Struct(s any) Errors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: a programming mistake (nil or non-struct), not user input.
		panic(err)
	}

	errs := Errors{}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

// Label converts a json field name into the words used in messages:
// "coach_first_name" -> "coach first name".
func Label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// message renders one failed rule.
func message(fe validator.FieldError) string {
	label := Label(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", label, fe.Param())
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", label, fe.Param())
	case "notfuture":
		return fmt.Sprintf("The %s field must not be greater than %d.", label, time.Now().Year())
	case "url", "http_url":
		return fmt.Sprintf("The %s field must be a valid URL.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "nefield":
		return fmt.Sprintf("The %s field and %s must be different.", label, Label(fe.Param()))
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}

// TrimStrings trims surrounding whitespace from every exported string and *string
// field of the struct pointed to by v, so a blank value fails "required" and
// "Alpha " is stored as "Alpha". Fields tagged `trim:"-"` (passwords) are left as sent.
func TrimStrings(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() || field.Tag.Get("trim") == "-" {
			continue
		}
		value := rv.Field(i)
		switch {
		case value.Kind() == reflect.String:
			value.SetString(strings.TrimSpace(value.String()))
		case value.Kind() == reflect.Pointer && !value.IsNil() && value.Elem().Kind() == reflect.String:
			value.Elem().SetString(strings.TrimSpace(value.Elem().String()))
		}
	}
}
