package services

import (
	"net/mail"
	"strings"
)

// NormEmail trims, lower-cases and drops a pasted "mailto:" prefix. ok is
// false unless the result is a bare address; display-name forms such as
// "Ahmad <a@b.c>" are rejected.
func NormEmail(s string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(s))
	e = strings.TrimPrefix(e, "mailto:")
	if e == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(e)
	if err != nil {
		return e, false
	}
	return e, addr.Address == e
}
