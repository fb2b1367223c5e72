package hal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Width  int
	Height int
	Hz     int
	// Frames stops the runner after this many steps. Zero runs until ctx is done.
	Frames uint64
}

// RunHeadless drives step from a ticker without opening a window. The
// framebuffer still exists, so the whole frame pipeline runs.
func RunHeadless(ctx context.Context, cfg HeadlessConfig, log *zap.Logger, newApp func(HAL) func() error) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := newHostHAL(log, cfg.Width, cfg.Height)
	step := newApp(h)

	t := time.NewTicker(d)
	defer t.Stop()

	var frames uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if step != nil {
				if err := step(); err != nil {
					if errors.Is(err, ErrStop) {
						return nil
					}
					return err
				}
			}
			frames++
			if cfg.Frames > 0 && frames >= cfg.Frames {
				h.log.Debug("headless run finished", zap.Uint64("frames", frames))
				return nil
			}
		}
	}
}
