package dto

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

// Input layouts of date and datetime-local fields. Datetimes are read and shown in UTC,
// matching what the clinic API stores.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

// Form is a submitted resource form.
type Form interface {
	// Validate checks the input. creating is false for updates.
	Validate(creating bool) error
	// Payload is the JSON body sent to the clinic API.
	Payload(creating bool) map[string]any
	// Values echoes the input back for re-rendering, keyed by field name.
	Values() map[string]string
}

// FieldErrors collects per-field validation messages.
type FieldErrors map[string]string

func (f FieldErrors) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "required"
	}
}

func (f FieldErrors) oneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	f[field] = "must be one of " + strings.Join(allowed, ", ")
}

func (f FieldErrors) layout(field, value, layout string) {
	if value == "" {
		return
	}
	if _, err := time.Parse(layout, value); err != nil {
		f[field] = "invalid date"
	}
}

// Err turns collected messages into a validation error, nil when there are none.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	details := make(map[string]any, len(f))
	for k, v := range f {
		details[k] = v
	}
	return apperrors.NewValidationError("Please complete the required fields.", details)
}

// FieldErrorsOf extracts per-field messages from a validation error.
func FieldErrorsOf(err error) map[string]string {
	out := map[string]string{}
	de := apperrors.ToDomainError(err)
	if de == nil {
		return out
	}
	for k, v := range de.Details {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func trim(s string) string { return strings.TrimSpace(s) }

func orDefault(value, fallback string) string {
	if value = trim(value); value == "" {
		return fallback
	}
	return value
}

// timeValue converts an input field to an RFC 3339 value, nil when blank.
func timeValue(value, layout string) any {
	if value = trim(value); value == "" {
		return nil
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// formatTime renders a stored time for an input field.
func formatTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
