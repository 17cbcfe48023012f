package main

import (
	"errors"
	"strings"
	"testing"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "password stripped", in: "postgres://app:s3cret@db:5432/users?sslmode=disable", want: "postgres://app@db:5432/users?sslmode=disable"},
		{name: "no credentials", in: "redis://cache:6379/0", want: "redis://cache:6379/0"},
		{name: "password only", in: "redis://:s3cret@cache:6379", want: "redis://redacted@cache:6379"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactURL(tt.in); got != tt.want {
				t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://app:s3cret@db:5432/users"
	err := errors.New("failed to connect to `" + dsn + "`: password=s3cret rejected")

	got := sanitizeError(err, dsn)

	if strings.Contains(got, "s3cret") {
		t.Errorf("sanitized error still contains the secret: %s", got)
	}
	if !strings.Contains(got, "postgres://app@db:5432/users") {
		t.Errorf("sanitized error lost the redacted URL: %s", got)
	}
}

func TestSanitizeError_Nil(t *testing.T) {
	if got := sanitizeError(nil, "x"); got != "" {
		t.Errorf("sanitizeError(nil) = %q, want empty", got)
	}
}
