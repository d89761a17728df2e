package idgen

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	id := String()
	if len(id) != defaultSize {
		t.Fatalf("len = %d, want %d", len(id), defaultSize)
	}
	for _, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("id %q contains %q outside the alphabet", id, r)
		}
	}

	if got := String(8); len(got) != 8 {
		t.Fatalf("String(8) len = %d", len(got))
	}
}

func TestStringUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := String()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNumber(t *testing.T) {
	id := Number(10)
	if len(id) != 10 {
		t.Fatalf("len = %d, want 10", len(id))
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			t.Fatalf("id %q contains non-digit %q", id, r)
		}
	}
}

func TestSuffix(t *testing.T) {
	tests := []struct {
		id   string
		n    int
		want string
	}{
		{"abcdefgh", 4, "efgh"},
		{"abc", 8, "abc"},
		{"abc", 3, "abc"},
		{"", 4, ""},
	}
	for _, tt := range tests {
		if got := Suffix(tt.id, tt.n); got != tt.want {
			t.Errorf("Suffix(%q, %d) = %q, want %q", tt.id, tt.n, got, tt.want)
		}
	}
}
