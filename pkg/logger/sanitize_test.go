package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"standard address", "owner@repclub.fit", "o****@*******.fit"},
		{"subdomain", "coach@mail.repclub.fit", "c****@****.*******.fit"},
		{"single-char username", "a@repclub.fit", "a@*******.fit"},
		{"no at sign", "not-an-email", "[invalid-email]"},
		{"two at signs", "a@b@c.com", "[invalid-email]"},
		{"empty", "", "[invalid-email]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizedEmail(tt.email))
		})
	}
}

func TestSanitizedIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{"email identifier", "owner@repclub.fit", "o****@*******.fit"},
		{"opaque identifier", "203.0.113.10|owner", "203." + strings.Repeat("*", 14)},
		{"short identifier", "abc", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizedIdentifier(tt.identifier))
		})
	}
}
