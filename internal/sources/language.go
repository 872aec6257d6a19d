package sources

import (
	"fmt"
	"strings"
)

// Language selects which edition of a bilingual feed is read.
type Language string

const (
	English Language = "english"
	French  Language = "french"
)

// ParseLanguage accepts the full name or its two-letter abbreviation. An
// empty string means English.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "english", "en":
		return English, nil
	case "french", "fr":
		return French, nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// Abbr is the upper-case code used in feed attributes ("EN", "FR").
func (l Language) Abbr() string {
	if l == French {
		return "FR"
	}
	return "EN"
}

// Letter is the file suffix used by citypage documents ("e", "f").
func (l Language) Letter() string {
	if l == French {
		return "f"
	}
	return "e"
}

// Pick returns en or fr according to l.
func (l Language) Pick(en, fr string) string {
	if l == French {
		return fr
	}
	return en
}
