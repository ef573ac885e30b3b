package services

import (
	"regexp"
	"strings"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	// Only allow digits, spaces, +, -, (, ), dots
	reAllowed = regexp.MustCompile(`^[0-9+\-\s\(\)\.]+$`)
)

// NormPhone normalizes phone numbers to a +E.164-like form.
// Rules: strip separators; 00.. -> +..; {cc}.. -> +{cc}..; 0.. -> +{cc}..; ensure leading +.
// Returns "" for input that cannot be a phone number.
func NormPhone(p, countryCode string) string {
	s := strings.TrimSpace(p)
	if s == "" || reLetters.MatchString(s) || !reAllowed.MatchString(s) {
		return ""
	}

	repl := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\t", "", "\n", "", "\r", "")
	s = repl.Replace(s)
	if s == "" || s == "+" {
		return ""
	}

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case countryCode != "" && strings.HasPrefix(s, countryCode):
		s = "+" + s
	case strings.HasPrefix(s, "0") && countryCode != "":
		s = "+" + countryCode + s[1:]
	default:
		s = "+" + s
	}
	return s
}
