package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ada Lovelace", "Ada Lovelace"},
		{"  Ada Lovelace  ", "Ada Lovelace"},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInstagram(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@handle", "handle"},
		{"handle", "handle"},
		{"  @handle  ", "handle"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Instagram(tt.input); got != tt.want {
				t.Errorf("Instagram(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
