package apierror

import (
	"fmt"
	"sort"
	"strings"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// ValidationError collects every violated rule per request field so the
// caller sees the full field -> reasons mapping, not just the first failure.
type ValidationError struct {
	Fields     map[string][]string `json:"fields"`
	HTTPStatus int                 `json:"-"`
}

func NewValidation(status int) *ValidationError {
	return &ValidationError{Fields: map[string][]string{}, HTTPStatus: status}
}

func (e *ValidationError) Add(field string, reason string) {
	e.Fields[field] = append(e.Fields[field], reason)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ""
	}

	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], "; ")))
	}

	return "validation failed: " + strings.Join(parts, ", ")
}
