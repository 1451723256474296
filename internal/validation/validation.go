// Package validation provides the syntactic checks applied to intake answers.
//
// Field checks run per answer as the question sequence advances; record checks
// re-validate the accumulated fields together before anything is persisted and
// are authoritative. Every failure carries a reason from a closed enumeration
// plus the user-facing message the conversation flow replies with.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cropgen/agrichat/internal/models"
)

// Field names used by the intake question sequences.
const (
	FieldName    = "name"
	FieldContact = "contact"
	FieldEmail   = "email"
)

// MinNameLength is the minimum accepted length for the name field.
const MinNameLength = 3

// CountryCodePrefix is prepended to a validated 10-digit contact number.
const CountryCodePrefix = "+91"

// Reason classifies a validation failure.
type Reason string

const (
	ReasonMissing      Reason = "missing"
	ReasonTooShort     Reason = "too_short"
	ReasonBadPhone     Reason = "bad_phone"
	ReasonBadEmail     Reason = "bad_email"
	ReasonUnknownField Reason = "unknown_field"
)

// FieldError describes a single failed check. It implements error so callers
// can wrap it, but the Message is what reaches the user.
type FieldError struct {
	Field   string
	Reason  Reason
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	canonicalContact = regexp.MustCompile(`^\+91\d{10}$`)
	nonDigits        = regexp.MustCompile(`\D`)
)

// CheckField validates a single raw answer for the named field and returns the
// canonical value to store. For contact this strips non-digit characters,
// requires exactly 10 digits and prepends the country code; other fields pass
// through unchanged.
func CheckField(field, value string) (string, *FieldError) {
	switch field {
	case FieldName:
		// Counted in characters, not bytes: multibyte names must not
		// slip under the minimum.
		if utf8.RuneCountInString(value) < MinNameLength {
			return value, &FieldError{
				Field:   FieldName,
				Reason:  ReasonTooShort,
				Message: fmt.Sprintf("Please enter a valid name with at least %d characters.", MinNameLength),
			}
		}
		return value, nil
	case FieldContact:
		digits := nonDigits.ReplaceAllString(value, "")
		if len(digits) != 10 {
			return value, &FieldError{
				Field:   FieldContact,
				Reason:  ReasonBadPhone,
				Message: "Please enter a valid 10-digit mobile number",
			}
		}
		return CountryCodePrefix + digits, nil
	case FieldEmail:
		if !emailPattern.MatchString(value) {
			return value, &FieldError{
				Field:   FieldEmail,
				Reason:  ReasonBadEmail,
				Message: "Please enter a valid email address.",
			}
		}
		return value, nil
	default:
		return value, &FieldError{
			Field:   field,
			Reason:  ReasonUnknownField,
			Message: "Unknown field.",
		}
	}
}

// FieldsForKind returns the ordered field names collected for a subject kind.
func FieldsForKind(kind models.SubjectKind) []string {
	if kind == models.SubjectOrganization {
		return []string{FieldName, FieldContact, FieldEmail}
	}
	return []string{FieldName, FieldContact}
}

// CheckRecord validates the full accumulated field set for a subject kind.
// Values are expected to already be canonicalized by CheckField; a step-level
// pass does not guarantee a record-level pass, so everything is re-checked.
func CheckRecord(kind models.SubjectKind, fields map[string]string) []FieldError {
	var errs []FieldError

	expected := FieldsForKind(kind)
	for _, field := range expected {
		value, ok := fields[field]
		if !ok || strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{
				Field:   field,
				Reason:  ReasonMissing,
				Message: fmt.Sprintf("Field %q is required.", field),
			})
			continue
		}
		switch field {
		case FieldName:
			if utf8.RuneCountInString(value) < MinNameLength {
				errs = append(errs, FieldError{
					Field:   FieldName,
					Reason:  ReasonTooShort,
					Message: fmt.Sprintf("Please enter a valid name with at least %d characters.", MinNameLength),
				})
			}
		case FieldContact:
			if !canonicalContact.MatchString(value) {
				errs = append(errs, FieldError{
					Field:   FieldContact,
					Reason:  ReasonBadPhone,
					Message: "Please enter a valid 10-digit mobile number",
				})
			}
		case FieldEmail:
			if !emailPattern.MatchString(value) {
				errs = append(errs, FieldError{
					Field:   FieldEmail,
					Reason:  ReasonBadEmail,
					Message: "Please enter a valid email address.",
				})
			}
		}
	}

	// Reject stray fields that do not belong to this kind.
	for field := range fields {
		known := false
		for _, f := range expected {
			if f == field {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, FieldError{
				Field:   field,
				Reason:  ReasonUnknownField,
				Message: fmt.Sprintf("Field %q is not part of this record.", field),
			})
		}
	}

	return errs
}
