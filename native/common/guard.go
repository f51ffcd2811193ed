package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a native module has been paused by governance.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the named module is paused. A nil view
// means pausing is not wired and every module is treated as live.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
