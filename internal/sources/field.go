package sources

import (
	"strconv"
	"strings"
)

// Field is one labelled quantity. A nil Value marks it absent from the feed.
type Field[T any] struct {
	Label string `json:"label"`
	Value *T     `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Present reports whether the feed carried a value.
func (f Field[T]) Present() bool {
	return f.Value != nil
}

// Get returns the value and whether it was present.
func (f Field[T]) Get() (T, bool) {
	if f.Value == nil {
		var zero T
		return zero, false
	}
	return *f.Value, true
}

// Clone returns f with its own copy of Value.
func (f Field[T]) Clone() Field[T] {
	if f.Value != nil {
		v := *f.Value
		f.Value = &v
	}
	return f
}

// NewField returns a present field.
func NewField[T any](label string, v T, unit string) Field[T] {
	return Field[T]{Label: label, Value: &v, Unit: unit}
}

// ParseFloat returns nil for empty or non-numeric text.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt returns nil for empty or non-integer text.
func ParseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// Text returns nil for empty text.
func Text(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
