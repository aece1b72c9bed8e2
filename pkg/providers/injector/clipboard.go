package injector

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/diktilo-ai/diktilo-core/pkg/diktlog"
)

// ClipboardInjector writes text through the system clipboard and issues a
// synthetic paste keystroke, saving and restoring whatever the clipboard
// held beforehand. Grounded on the corpus's clipboard-then-paste dictation
// flow; the save/restore step is unconditional, matching spec 4.6.
type ClipboardInjector struct {
	logger    diktlog.Logger
	pasteFunc func() error
}

func NewClipboardInjector(logger diktlog.Logger) *ClipboardInjector {
	if logger == nil {
		logger = diktlog.NoOpLogger{}
	}
	return &ClipboardInjector{logger: logger, pasteFunc: defaultPaste}
}

func (c *ClipboardInjector) Inject(text string) error {
	prior, _ := clipboard.ReadAll()

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardBusy, err)
	}

	pasteErr := c.pasteFunc()

	if err := clipboard.WriteAll(prior); err != nil {
		c.logger.Warn("injector: failed to restore prior clipboard", "error", err)
	}

	if pasteErr != nil {
		return fmt.Errorf("%w: %v", ErrFocusLost, pasteErr)
	}
	return nil
}

// RestoreClipboard writes text back to the clipboard directly, for callers
// (the supervisor's cancel path) that captured a clipboard snapshot earlier
// and need to restore it without staging a paste.
func (c *ClipboardInjector) RestoreClipboard(text string) error {
	return clipboard.WriteAll(text)
}

func (c *ClipboardInjector) GetSelectedText() (string, bool, string, error) {
	prior, err := clipboard.ReadAll()
	if err != nil {
		prior = ""
	}
	return "", false, prior, nil
}

// defaultPaste dispatches a platform paste shortcut. No third-party
// synthetic-input library appears anywhere in the corpus, so this shells
// out to each platform's own input tool rather than hand-rolling OS-level
// key injection.
func defaultPaste() error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("osascript", "-e", `tell application "System Events" to keystroke "v" using command down`).Run()
	case "windows":
		return exec.Command("powershell", "-NoProfile", "-Command",
			`(New-Object -ComObject WScript.Shell).SendKeys("^v")`).Run()
	default:
		return exec.Command("xdotool", "key", "--clearmodifiers", "ctrl+v").Run()
	}
}

var _ TextInjector = (*ClipboardInjector)(nil)
