package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwadhwa/touchbase/internal/database/models"
)

// ErrNotFound is returned when no contact or email matches the given key.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input caught before any row is written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// DuplicateValueError reports a contact method value that already belongs to
// another contact. The whole create is aborted; nothing is persisted.
type DuplicateValueError struct {
	MethodType   models.MethodType
	Value        string
	OwnerName    string
	OwnerCompany string
}

func (e *DuplicateValueError) Error() string {
	owner := e.OwnerName
	if e.OwnerCompany != "" {
		owner += " (" + e.OwnerCompany + ")"
	}
	return fmt.Sprintf("contact method %s:%s is already used by contact %s", e.MethodType, e.Value, owner)
}

// Candidate describes one of several contacts matching a delete-by-name
// request, so the caller can pick a disambiguating filter.
type Candidate struct {
	Company string   `json:"company,omitempty"`
	Methods []string `json:"contact_methods"`
}

// AmbiguousError is returned when a delete-by-name narrows to more than one
// contact. The message enumerates every remaining candidate.
type AmbiguousError struct {
	Name       string
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "multiple contacts found with name %q:", e.Name)
	for i, c := range e.Candidates {
		company := c.Company
		if company == "" {
			company = "no company"
		}
		fmt.Fprintf(&sb, " [%d] %s: %s", i+1, company, strings.Join(c.Methods, ", "))
	}
	sb.WriteString("; supply contact_info or company to disambiguate")
	return sb.String()
}

// UnknownContactError is returned when an email names a contact that resolves
// to nothing. The request fails closed; no rows are written.
type UnknownContactError struct {
	Ref string
}

func (e *UnknownContactError) Error() string {
	return fmt.Sprintf("no contact matches %q", e.Ref)
}
