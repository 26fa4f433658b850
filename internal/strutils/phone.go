package strutils

import (
	"fmt"
	"strings"
	"unicode"
)

const PHONE_LENGTH = 10

// Trims surrounding whitespace and makes sure exactly 10 ASCII digits remain
func NormalizePhone(phone string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	if len(trimmed) != PHONE_LENGTH {
		return "", fmt.Errorf("phone number must have exactly %d digits. input: '%s'", PHONE_LENGTH, phone)
	}
	for _, char := range trimmed {
		if char < '0' || char > '9' {
			return "", fmt.Errorf("invalid character in phone number. input: '%s'", phone)
		}
	}
	return trimmed, nil
}

func PhoneIsNormalized(phone string) bool {
	normalized, err := NormalizePhone(phone)
	return err == nil && normalized == phone
}

// Trims the name and collapses inner runs of whitespace to a single space
func NormalizeName(name string) (string, error) {
	normalized := strings.Join(strings.FieldsFunc(name, unicode.IsSpace), " ")
	if normalized == "" {
		return "", fmt.Errorf("name is empty")
	}
	return normalized, nil
}

// Case-insensitive name comparison under Unicode simple case folding
func NamesEqual(a, b string) bool {
	return NameKey(a) == NameKey(b)
}

// A canonical form of name such that NameKey(a) == NameKey(b) exactly when
// strings.EqualFold(a, b). Each rune becomes the lowercase member of its fold
// orbit, or the smallest member when the orbit has no lowercase form.
func NameKey(name string) string {
	return strings.Map(foldRune, name)
}

func foldRune(r rune) rune {
	smallest := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		smallest = min(smallest, f)
	}

	lower := unicode.ToLower(smallest)
	for f := unicode.SimpleFold(smallest); ; f = unicode.SimpleFold(f) {
		if f == lower {
			return lower
		}
		if f == smallest {
			return smallest
		}
	}
}

// Replace all but the last few digits with *
func MaskPhone(phone string) string {
	const visible = 4
	if len(phone) <= visible {
		return phone
	}
	return strings.Repeat("*", len(phone)-visible) + phone[len(phone)-visible:]
}
