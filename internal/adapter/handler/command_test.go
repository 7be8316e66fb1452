package handler

import (
	"errors"
	"testing"
)

func TestSplitCode(t *testing.T) {
	code, err := splitCode(" A-001 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "A-001" {
		t.Errorf("expected A-001, got %q", code)
	}

	for _, args := range []string{"", "A-001 extra", "a b c"} {
		if _, err := splitCode(args); !errors.Is(err, errBadFormat) {
			t.Errorf("args %q: expected errBadFormat, got %v", args, err)
		}
	}
}

func TestSplitCodeAmount(t *testing.T) {
	code, amount, err := splitCodeAmount("A-001 10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "A-001" || amount != 10 {
		t.Errorf("expected (A-001, 10), got (%q, %d)", code, amount)
	}

	// Negative amounts parse here; the ledger rejects them.
	if _, amount, err = splitCodeAmount("A-001 -3"); err != nil || amount != -3 {
		t.Errorf("expected -3, got %d (err %v)", amount, err)
	}

	for _, args := range []string{"", "A-001", "A-001 ten", "A-001 10 extra"} {
		if _, _, err := splitCodeAmount(args); !errors.Is(err, errBadFormat) {
			t.Errorf("args %q: expected errBadFormat, got %v", args, err)
		}
	}
}

func TestSplitCodeText(t *testing.T) {
	code, text, err := splitCodeText("A-001 Office mouse with cable")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "A-001" {
		t.Errorf("expected A-001, got %q", code)
	}
	if text != "Office mouse with cable" {
		t.Errorf("expected remainder preserved, got %q", text)
	}

	for _, args := range []string{"", "A-001", "A-001   "} {
		if _, _, err := splitCodeText(args); !errors.Is(err, errBadFormat) {
			t.Errorf("args %q: expected errBadFormat, got %v", args, err)
		}
	}
}
