package api

import "testing"

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "/"},
		{in: "/health", want: "/health"},
		{in: "/attachments/3b241101-e2bb-4255-8caf-4136c566a962", want: "/attachments/:id"},
		{in: "/a/b/c/d/e", want: "/a/b/c/..."},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.in); got != tt.want {
			t.Fatalf("sanitizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
