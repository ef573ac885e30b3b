package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormPhone(t *testing.T) {
	cases := []struct {
		in, cc, want string
	}{
		{"0812-3456-789", "62", "+628123456789"},
		{"62 812 3456 789", "62", "+628123456789"},
		{"0020 100 123 4567", "62", "+201001234567"},
		{"+20 (100) 123.4567", "62", "+201001234567"},
		{"01001234567", "20", "+201001234567"},
		{"812345", "", "+812345"},
		{"call me", "62", ""},
		{"0812/345", "62", ""},
		{"  ", "62", ""},
		{"+", "62", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormPhone(c.in, c.cc), "NormPhone(%q, %q)", c.in, c.cc)
	}
}

func TestNormEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  Ahmad@Example.COM ", "ahmad@example.com", true},
		{"mailto:ahmad@example.com", "ahmad@example.com", true},
		{"Ahmad <ahmad@example.com>", "ahmad <ahmad@example.com>", false},
		{"not-an-email", "not-an-email", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormEmail(c.in)
		assert.Equal(t, c.want, got, c.in)
		assert.Equal(t, c.ok, ok, c.in)
	}
}
