package hotkey

import "testing"

func TestParseAcceleratorCommandOrControlShiftD(t *testing.T) {
	mods, key, err := parseAccelerator("CommandOrControl+Shift+D")
	if err != nil {
		t.Fatalf("parseAccelerator: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("got %d modifiers, want 2", len(mods))
	}
	if key != keyByName["D"] {
		t.Fatalf("got key %v want D", key)
	}
}

func TestParseAcceleratorUnknownModifier(t *testing.T) {
	if _, _, err := parseAccelerator("Hyper+A"); err == nil {
		t.Fatal("expected error for unknown modifier")
	}
}

func TestParseAcceleratorUnknownKey(t *testing.T) {
	if _, _, err := parseAccelerator("Ctrl+F99"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseAcceleratorSingleKeyNoModifiers(t *testing.T) {
	mods, key, err := parseAccelerator("Escape")
	if err != nil {
		t.Fatalf("parseAccelerator: %v", err)
	}
	if len(mods) != 0 {
		t.Fatalf("got %d modifiers, want 0", len(mods))
	}
	if key != keyByName["ESCAPE"] {
		t.Fatalf("got key %v want Escape", key)
	}
}
