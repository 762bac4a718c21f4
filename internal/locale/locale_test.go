package locale

import (
	"testing"
)

func TestForTag(t *testing.T) {
	tests := []struct {
		tag     string
		decimal rune
		group   rune
	}{
		{"en-US", '.', ','},
		{"de-DE", ',', '.'},
	}
	for _, tt := range tests {
		sep, err := ForTag(tt.tag)
		if err != nil {
			t.Fatalf("ForTag(%s) failed: %v", tt.tag, err)
		}
		if sep.Decimal != tt.decimal || sep.Group != tt.group {
			t.Errorf("ForTag(%s): expected %q/%q, got %q/%q", tt.tag, tt.decimal, tt.group, sep.Decimal, sep.Group)
		}
	}
}

func TestForTagInvalid(t *testing.T) {
	if _, err := ForTag("not a tag!"); err == nil {
		t.Error("expected an error for a malformed tag")
	}
}

func TestGermanRoundTrip(t *testing.T) {
	tr, err := New("de-DE", true)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	canonical := "max(1.5; @waist*0.25) + Line_A_B"
	user := tr.ToUser(canonical)
	if user != "max(1,5; @waist*0,25) + Line_A_B" {
		t.Errorf("unexpected user form %q", user)
	}
	if back := tr.FromUser(user); back != canonical {
		t.Errorf("expected round trip to %q, got %q", canonical, back)
	}
}

func TestFromUserDropsGroups(t *testing.T) {
	tr, err := New("de-DE", true)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := tr.FromUser("1.234,5 + 2"); got != "1234.5 + 2" {
		t.Errorf("expected group separators to be dropped, got %q", got)
	}
	const msg = `warning("Max 1.000 cm"; 1.000,5)`
	if got := tr.FromUser(msg); got != `warning("Max 1.000 cm"; 1000.5)` {
		t.Errorf("expected string literal kept verbatim, got %q", got)
	}
}

func TestNoOSSeparator(t *testing.T) {
	tr, err := New("de-DE", false)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	const f = "1.5+2"
	if tr.ToUser(f) != f || tr.FromUser(f) != f {
		t.Error("expected canonical text to pass through unchanged")
	}
}

func TestFormatValue(t *testing.T) {
	if got := CanonicalTranslator().FormatValue(12.5, 2); got != "12.50" {
		t.Errorf("expected 12.50, got %q", got)
	}
}
