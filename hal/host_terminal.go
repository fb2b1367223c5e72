package hal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
)

// Terminals report key presses only. A key counts as held until it has not
// repeated for keyHold.
const keyHold = 150 * time.Millisecond

// TerminalConfig controls the terminal runner.
type TerminalConfig struct {
	Hz     int
	Frames uint64
}

// RunTerminal shows the framebuffer in the terminal, two pixels per cell
// using upper half blocks. The framebuffer follows the terminal size.
// Ctrl-C ends the run.
func RunTerminal(ctx context.Context, cfg TerminalConfig, log *zap.Logger, newApp func(HAL) func() error) error {
	screen, err := tcell.NewScreen()
	if err == nil {
		err = screen.Init()
	}
	if err != nil {
		h := newHostHAL(log, 0, 0)
		h.probe = fmt.Errorf("%w: %v", ErrNoDisplay, err)
		step := newApp(h)
		if step == nil {
			return h.probe
		}
		return step()
	}
	defer screen.Fini()
	return runTerminal(ctx, screen, cfg, log, newApp)
}

func runTerminal(ctx context.Context, screen tcell.Screen, cfg TerminalConfig, log *zap.Logger, newApp func(HAL) func() error) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	cols, rows := screen.Size()
	h := newHostHAL(log, cols, rows*2)
	step := newApp(h)

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	t := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer t.Stop()

	held := make(map[KeyCode]time.Time)
	var frames uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				w, ht := ev.Size()
				if h.fb.resize(w, ht*2) {
					h.log.Debug("framebuffer resized", zap.Int("width", w), zap.Int("height", ht*2))
				}
				screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC {
					return nil
				}
				code, r := terminalKey(ev)
				if code == KeyUnknown {
					if r != 0 {
						h.kbd.push(KeyEvent{Press: true, Rune: r})
					}
					continue
				}
				if _, ok := held[code]; !ok {
					h.kbd.push(KeyEvent{Code: code, Press: true})
				}
				held[code] = time.Now()
			}

		case now := <-t.C:
			for code, last := range held {
				if now.Sub(last) > keyHold {
					delete(held, code)
					h.kbd.push(KeyEvent{Code: code, Press: false})
				}
			}
			if step != nil {
				if err := step(); err != nil {
					if errors.Is(err, ErrStop) {
						return nil
					}
					return err
				}
			}
			blitHalfBlocks(screen, h.fb)
			screen.Show()
			frames++
			if cfg.Frames > 0 && frames >= cfg.Frames {
				return nil
			}
		}
	}
}

func terminalKey(ev *tcell.EventKey) (KeyCode, rune) {
	switch ev.Key() {
	case tcell.KeyUp:
		return KeyUp, 0
	case tcell.KeyDown:
		return KeyDown, 0
	case tcell.KeyLeft:
		return KeyLeft, 0
	case tcell.KeyRight:
		return KeyRight, 0
	case tcell.KeyEnter:
		return KeyEnter, 0
	case tcell.KeyEscape:
		return KeyEscape, 0
	case tcell.KeyTab:
		return KeyTab, 0
	case tcell.KeyF1:
		return KeyF1, 0
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return KeySpace, 0
		}
		return KeyUnknown, ev.Rune()
	}
	return KeyUnknown, 0
}

// blitHalfBlocks draws framebuffer rows 2y and 2y+1 into terminal row y.
func blitHalfBlocks(screen tcell.Screen, fb *hostFramebuffer) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	cols, rows := fb.width, fb.height/2
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			tr, tg, tb := rgb888From565(fb.pixel(x, 2*y))
			br, bg, bb := rgb888From565(fb.pixel(x, 2*y+1))
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(tr), int32(tg), int32(tb))).
				Background(tcell.NewRGBColor(int32(br), int32(bg), int32(bb)))
			screen.SetContent(x, y, '▀', nil, style)
		}
	}
}
