package cli

import (
	"strings"
	"testing"
)

func TestSuccessWithColor(t *testing.T) {
	ColorEnabled = true
	defer func() { ColorEnabled = false }()

	got := Success("all good")
	if !strings.Contains(got, "✓ all good") {
		t.Error("expected ✓ prefix and message")
	}
}

func TestSuccessWithoutColor(t *testing.T) {
	ColorEnabled = false

	got := Success("all good")
	if got != "✓ all good" {
		t.Errorf("got %q, want %q", got, "✓ all good")
	}
}

func TestErrorWithoutColor(t *testing.T) {
	ColorEnabled = false

	got := Error("failed")
	if got != "✗ failed" {
		t.Errorf("got %q, want %q", got, "✗ failed")
	}
}

func TestWarnWithoutColor(t *testing.T) {
	ColorEnabled = false

	got := Warn("careful")
	if got != "⚠ careful" {
		t.Errorf("got %q, want %q", got, "⚠ careful")
	}
}

func TestInfoWithoutColor(t *testing.T) {
	ColorEnabled = false

	got := Info("note")
	if got != "note" {
		t.Errorf("got %q, want %q", got, "note")
	}
}

func TestColorizeKeepsText(t *testing.T) {
	ColorEnabled = true
	defer func() { ColorEnabled = false }()

	for _, role := range []ColorRole{RoleSuccess, RoleError, RoleWarn, RoleInfo, RoleAccent, RoleHeading, RoleMuted} {
		if got := Colorize(role, "text"); !strings.Contains(got, "text") {
			t.Errorf("role %d: got %q, want it to contain the text", role, got)
		}
	}
}

func TestInitColorEnabledRespectsNO_COLOR(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if initColorEnabled() {
		t.Error("expected colors disabled when NO_COLOR is set")
	}
}

func TestInitColorEnabledNonTTY(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	// In test environments stdout is not a TTY, so colors should be off
	if initColorEnabled() {
		t.Error("expected colors disabled when stdout is not a TTY")
	}
}
