//go:build !cgo

package hal

import "go.uber.org/zap"

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Width  int
	Height int
	Scale  int
	Title  string
	Hz     int
}

// RunWindow cannot open a window without cgo. The app still gets a HAL so its
// startup check fails and its diagnostic path runs; the step error is returned.
func RunWindow(cfg WindowConfig, log *zap.Logger, newApp func(HAL) func() error) error {
	h := newHostHAL(log, cfg.Width, cfg.Height)
	h.probe = ErrWindowUnavailable
	step := newApp(h)
	if step == nil {
		return ErrWindowUnavailable
	}
	return step()
}
