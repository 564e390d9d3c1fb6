// --- Copyright © 2025 Gjorgji J. ---

package matchpattern

import (
	"testing"
	"time"
)

func TestCompile(t *testing.T) {
	t.Run("Valid pattern", func(t *testing.T) {
		if _, err := Compile(`^main-[a-fA-F0-9]+-(?P<ts>[1-9][0-9]*)`); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("Missing named group", func(t *testing.T) {
		if _, err := Compile(`^main-[a-f0-9]+-[0-9]+$`); err == nil {
			t.Fatalf("Expected error for pattern without a named group, got nil")
		}
	})

	t.Run("Two named groups", func(t *testing.T) {
		if _, err := Compile(`^(?P<branch>\w+)-(?P<ts>\d+)$`); err == nil {
			t.Fatalf("Expected error for pattern with two named groups, got nil")
		}
	})

	t.Run("Invalid expression", func(t *testing.T) {
		if _, err := Compile(`^main-(?P<ts>[0-9]+`); err == nil {
			t.Fatalf("Expected error for uncompilable pattern, got nil")
		}
	})
}

func TestExtract(t *testing.T) {
	matcher, err := Compile(`^main-[a-fA-F0-9]+-(?P<ts>[1-9][0-9]*)`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	t.Run("Matching tag", func(t *testing.T) {
		ts, ok := matcher.Extract("main-abc123-999999999")
		if !ok {
			t.Fatalf("Expected tag to match")
		}
		want := time.Unix(999999999, 0).UTC()
		if !ts.Equal(want) {
			t.Errorf("Extract timestamp = %v; want %v", ts, want)
		}
	})

	t.Run("Non-matching tag is excluded", func(t *testing.T) {
		if _, ok := matcher.Extract("latest"); ok {
			t.Errorf("Expected 'latest' to be excluded")
		}
	})

	t.Run("Unanchored pattern still matches from the start only", func(t *testing.T) {
		unanchored, err := Compile(`main-[a-fA-F0-9]+-(?P<ts>[1-9][0-9]*)`)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, ok := unanchored.Extract("manual-release-main-abc-999999999"); ok {
			t.Errorf("Expected mid-string occurrence to be excluded")
		}
		if _, ok := unanchored.Extract("main-abc-999999999"); !ok {
			t.Errorf("Expected prefix match to be accepted")
		}
	})

	t.Run("Overflowing epoch is excluded", func(t *testing.T) {
		if _, ok := matcher.Extract("main-abc123-99999999999999999999"); ok {
			t.Errorf("Expected overflowing timestamp to be excluded, not fatal")
		}
	})

	t.Run("Non-positive epoch is excluded", func(t *testing.T) {
		loose, err := Compile(`^v(?P<ts>[0-9]+)$`)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, ok := loose.Extract("v0"); ok {
			t.Errorf("Expected zero timestamp to be excluded")
		}
	})
}
