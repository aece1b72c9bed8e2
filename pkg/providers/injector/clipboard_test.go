package injector

import (
	"errors"
	"testing"

	"github.com/atotto/clipboard"
)

func TestClipboardInjectorRestoresPriorClipboard(t *testing.T) {
	if !clipboard.Unsupported {
		clipboard.WriteAll("prior contents")
	}

	inj := NewClipboardInjector(nil)
	inj.pasteFunc = func() error { return nil }

	if err := inj.Inject("new text"); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	if clipboard.Unsupported {
		t.Skip("clipboard unsupported in this environment")
	}
	got, _ := clipboard.ReadAll()
	if got != "prior contents" {
		t.Fatalf("expected clipboard restored to %q, got %q", "prior contents", got)
	}
}

func TestClipboardInjectorRestoresEvenOnPasteFailure(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("clipboard unsupported in this environment")
	}
	clipboard.WriteAll("keep me")

	inj := NewClipboardInjector(nil)
	inj.pasteFunc = func() error { return errors.New("paste failed") }

	err := inj.Inject("transient")
	if !errors.Is(err, ErrFocusLost) {
		t.Fatalf("got %v want ErrFocusLost", err)
	}

	got, _ := clipboard.ReadAll()
	if got != "keep me" {
		t.Fatalf("expected clipboard restored after paste failure, got %q", got)
	}
}
