// Package hotkey parses accelerator strings and dispatches Toggle/PushToTalk
// triggers onto the Flow Supervisor, grounded on the teacher's
// signal.Notify-driven event loop in cmd/agent/main.go.
package hotkey

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"

	"github.com/diktilo-ai/diktilo-core/pkg/diktlog"
	"github.com/diktilo-ai/diktilo-core/pkg/supervisor"
)

// SupervisorHandle is the subset of Supervisor's API the dispatcher drives.
type SupervisorHandle interface {
	Start(mode supervisor.Mode) error
	RequestStop() error
	Status() supervisor.FlowStatus
}

// Binding pairs an accelerator string with the trigger mode it should drive.
type Binding struct {
	Accelerator string
	Mode        supervisor.Mode
}

// Dispatcher owns the registered hotkeys for the process lifetime.
type Dispatcher struct {
	sup    SupervisorHandle
	logger diktlog.Logger
	keys   []*hotkey.Hotkey
}

func NewDispatcher(sup SupervisorHandle, logger diktlog.Logger) *Dispatcher {
	if logger == nil {
		logger = diktlog.NoOpLogger{}
	}
	return &Dispatcher{sup: sup, logger: logger}
}

// Register parses b.Accelerator and starts listening for it. For Toggle
// bindings, each keydown flips recording on/off. For PushToTalk bindings,
// keydown starts recording and keyup stops it.
func (d *Dispatcher) Register(b Binding) error {
	mods, key, err := parseAccelerator(b.Accelerator)
	if err != nil {
		return err
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("hotkey: register %q: %w", b.Accelerator, err)
	}
	d.keys = append(d.keys, hk)

	go d.runToggleOrPTT(hk, b.Mode)
	return nil
}

func (d *Dispatcher) runToggleOrPTT(hk *hotkey.Hotkey, mode supervisor.Mode) {
	for {
		if mode == supervisor.Toggle {
			<-hk.Keydown()
			d.dispatchToggle()
			continue
		}
		<-hk.Keydown()
		d.dispatchPTTStart()
		<-hk.Keyup()
		d.dispatchPTTStop()
	}
}

func (d *Dispatcher) dispatchToggle() {
	if d.sup.Status() == supervisor.Idle {
		if err := d.sup.Start(supervisor.Toggle); err != nil {
			d.logger.Error("hotkey: start failed", "error", err)
		}
		return
	}
	if err := d.sup.RequestStop(); err != nil {
		d.logger.Error("hotkey: stop failed", "error", err)
	}
}

func (d *Dispatcher) dispatchPTTStart() {
	if d.sup.Status() != supervisor.Idle {
		return
	}
	if err := d.sup.Start(supervisor.PushToTalk); err != nil {
		d.logger.Error("hotkey: PTT start failed", "error", err)
	}
}

func (d *Dispatcher) dispatchPTTStop() {
	if d.sup.Status() != supervisor.Recording {
		return
	}
	if err := d.sup.RequestStop(); err != nil {
		d.logger.Error("hotkey: PTT stop failed", "error", err)
	}
}

// Close unregisters every bound hotkey.
func (d *Dispatcher) Close() {
	for _, hk := range d.keys {
		hk.Unregister()
	}
}

// parseAccelerator turns "CommandOrControl+Shift+D"-style strings into
// golang.design/x/hotkey's Modifier slice and Key value.
func parseAccelerator(accel string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(accel, "+")
	if len(parts) == 0 {
		return nil, 0, fmt.Errorf("hotkey: empty accelerator")
	}

	var mods []hotkey.Modifier
	for _, p := range parts[:len(parts)-1] {
		mod, err := parseModifier(strings.TrimSpace(p))
		if err != nil {
			return nil, 0, err
		}
		mods = append(mods, mod)
	}

	key, err := parseKey(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return nil, 0, err
	}
	return mods, key, nil
}

func parseModifier(token string) (hotkey.Modifier, error) {
	switch strings.ToLower(token) {
	case "commandorcontrol", "cmdorctrl", "ctrl", "control":
		return hotkey.ModCtrl, nil
	case "shift":
		return hotkey.ModShift, nil
	case "alt", "option":
		return hotkey.ModOption, nil
	case "super", "cmd", "command", "win":
		return hotkey.ModCmd, nil
	default:
		return 0, fmt.Errorf("hotkey: unknown modifier %q", token)
	}
}

var keyByName = map[string]hotkey.Key{
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"SPACE": hotkey.KeySpace, "RETURN": hotkey.KeyReturn, "TAB": hotkey.KeyTab,
	"ESCAPE": hotkey.KeyEscape,
}

func parseKey(token string) (hotkey.Key, error) {
	key, ok := keyByName[strings.ToUpper(token)]
	if !ok {
		return 0, fmt.Errorf("hotkey: unknown key %q", token)
	}
	return key, nil
}
