// Package textx contains tests for the text utilities.
package textx

import "testing"

func TestSanitizeText(t *testing.T) {
	in := "he\x00llo\nwo\x7frld\t!"
	got := SanitizeText(in)
	if got != "hello\nworld\t!" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("héllo", 3); got != "hél" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := TruncateRunes("hi", 10); got != "hi" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := TruncateRunes("hi", 0); got != "" {
		t.Fatalf("unexpected: %q", got)
	}
}
