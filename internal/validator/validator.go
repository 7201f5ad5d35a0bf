// Package validator performs structural validation of decoded request
// payloads before they reach the repository: required fields, length
// bounds, and enumerated-domain membership. It accumulates every
// violation found rather than stopping at the first, so a client gets
// the complete picture in one round trip.
package validator

import (
	"fmt"
	"strings"

	"github.com/joescharf/issueboard/internal/models"
)

// FieldError names the offending field alongside a human-readable reason.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a collection of FieldError. A nil or empty Errors means the
// payload is valid.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Validator accumulates field-scoped errors across a sequence of checks.
type Validator struct {
	errs Errors
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// Required fails if value is empty after trimming whitespace.
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
}

// MaxLength fails if value exceeds max runes.
func (v *Validator) MaxLength(field, value string, max int) {
	if len([]rune(value)) > max {
		v.add(field, fmt.Sprintf("must not exceed %d characters", max))
	}
}

// OneOf fails if value is not a member of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// Valid reports whether no errors have been accumulated.
func (v *Validator) Valid() bool {
	return len(v.errs) == 0
}

// Errors returns the accumulated errors, or nil if none.
func (v *Validator) Errors() Errors {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

func statusNames() []string {
	out := make([]string, len(models.IssueStatuses))
	for i, s := range models.IssueStatuses {
		out[i] = string(s)
	}
	return out
}

func priorityNames() []string {
	out := make([]string, len(models.IssuePriorities))
	for i, p := range models.IssuePriorities {
		out[i] = string(p)
	}
	return out
}

// CreateIssueRequest mirrors the decoded POST /issues body.
type CreateIssueRequest struct {
	Title       string
	Description string
	Status      string
	Priority    string
}

// ValidateCreateIssue checks title, description, status, and priority
// against spec bounds: title non-empty and ≤200 chars, description
// ≤5000 chars, status and priority drawn from their enumerated sets.
func ValidateCreateIssue(req CreateIssueRequest) Errors {
	v := New()
	v.Required("title", req.Title)
	v.MaxLength("title", req.Title, maxTitleLength)
	v.MaxLength("description", req.Description, maxDescriptionLength)
	v.OneOf("status", req.Status, statusNames())
	v.OneOf("priority", req.Priority, priorityNames())
	return v.Errors()
}

// UpdateIssueRequest mirrors the decoded PATCH /issues/{id} body. A nil
// field means the client did not send it; only present fields are
// validated, matching spec.md §4.3's "same bounds apply but only to
// fields actually present".
type UpdateIssueRequest struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}

// ValidateUpdateIssue checks only the fields present in req.
func ValidateUpdateIssue(req UpdateIssueRequest) Errors {
	v := New()
	if req.Title != nil {
		v.Required("title", *req.Title)
		v.MaxLength("title", *req.Title, maxTitleLength)
	}
	if req.Description != nil {
		v.MaxLength("description", *req.Description, maxDescriptionLength)
	}
	if req.Status != nil {
		v.OneOf("status", *req.Status, statusNames())
	}
	if req.Priority != nil {
		v.OneOf("priority", *req.Priority, priorityNames())
	}
	return v.Errors()
}
