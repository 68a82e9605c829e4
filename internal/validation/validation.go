package validation

import (
	"net/mail"
	"net/url"
	"strings"
)

// Violation is one failed rule on one field. Violations preserves
// insertion order so the first check that fails is the one surfaced
// to the caller.
type Violation struct {
	Field string
	Rule  string
}

type Violations []Violation

func (v Violations) Empty() bool { return len(v) == 0 }

// First returns the earliest violation; zero value when empty.
func (v Violations) First() Violation {
	if len(v) == 0 {
		return Violation{}
	}
	return v[0]
}

func (v *Violations) add(field, rule string) {
	*v = append(*v, Violation{Field: field, Rule: rule})
}

// Basic validators
func Required(field, value string, v *Violations) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "required")
	}
}

func PositiveFloat(field string, val float64, v *Violations) {
	if val <= 0 {
		v.add(field, "must_be_positive")
	}
}

func NonNegativeFloat(field string, val float64, v *Violations) {
	if val < 0 {
		v.add(field, "must_not_be_negative")
	}
}

// MinLen enforces a minimum byte length (passwords).
func MinLen(field, value string, n int, v *Violations) {
	if len(value) < n {
		v.add(field, "too_short")
	}
}

// ExactLen enforces a fixed byte length (currency codes).
func ExactLen(field, value string, n int, v *Violations) {
	if len(value) != n {
		v.add(field, "invalid_length")
	}
}

// Email validates format only when a value is present.
func Email(field, value string, v *Violations) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "invalid_email")
	}
}

// URL validates an absolute http(s) URL only when a value is present.
func URL(field, value string, v *Violations) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.add(field, "invalid_url")
	}
}

// OneOf restricts value to an allowed set; empty value passes.
func OneOf(field, value string, allowed []string, v *Violations) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.add(field, "invalid_value")
}
