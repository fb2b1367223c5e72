package hal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func TestCheckDisplay(t *testing.T) {
	h := newHostHAL(nil, 8, 4)
	if err := CheckDisplay(h); err != nil {
		t.Fatalf("CheckDisplay: %v", err)
	}

	h.probe = ErrWindowUnavailable
	if err := CheckDisplay(h); !errors.Is(err, ErrWindowUnavailable) {
		t.Fatalf("err=%v want ErrWindowUnavailable", err)
	}

	empty := newHostHAL(nil, 0, 0)
	if err := CheckDisplay(empty); !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("err=%v want ErrNoDisplay", err)
	}
	if err := CheckDisplay(nil); !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("nil HAL err=%v", err)
	}
}

func TestFramebufferResizeAndClear(t *testing.T) {
	fb := newHostFramebuffer(4, 2)
	if fb.StrideBytes() != 8 || len(fb.Buffer()) != 16 {
		t.Fatalf("stride=%d len=%d", fb.StrideBytes(), len(fb.Buffer()))
	}
	if fb.resize(4, 2) {
		t.Fatalf("resize to same size reallocated")
	}
	if !fb.resize(6, 3) {
		t.Fatalf("resize did not report change")
	}
	if fb.Width() != 6 || fb.Height() != 3 || len(fb.Buffer()) != 36 {
		t.Fatalf("size=%dx%d len=%d", fb.Width(), fb.Height(), len(fb.Buffer()))
	}

	fb.ClearRGB(255, 0, 0)
	if got := fb.pixel(5, 2); got != rgb565(255, 0, 0) {
		t.Fatalf("pixel=%04x", got)
	}
	if got := fb.pixel(6, 0); got != 0 {
		t.Fatalf("out of range pixel=%04x", got)
	}
	r, g, b := rgb888From565(fb.pixel(0, 0))
	if r != 255 || g != 0 || b != 0 {
		t.Fatalf("rgb=%d,%d,%d", r, g, b)
	}
}

func TestRunHeadlessFrames(t *testing.T) {
	steps := 0
	var got HAL
	err := RunHeadless(context.Background(), HeadlessConfig{Width: 16, Height: 8, Hz: 1000, Frames: 5}, nil,
		func(h HAL) func() error {
			got = h
			return func() error { steps++; return nil }
		})
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if steps != 5 {
		t.Fatalf("steps=%d want 5", steps)
	}
	if fb := got.Display().Framebuffer(); fb.Width() != 16 || fb.Height() != 8 {
		t.Fatalf("framebuffer %dx%d", fb.Width(), fb.Height())
	}
}

func TestRunHeadlessStopAndError(t *testing.T) {
	err := RunHeadless(context.Background(), HeadlessConfig{Width: 1, Height: 1, Hz: 1000}, nil,
		func(HAL) func() error { return func() error { return ErrStop } })
	if err != nil {
		t.Fatalf("ErrStop should end cleanly, got %v", err)
	}

	boom := errors.New("boom")
	err = RunHeadless(context.Background(), HeadlessConfig{Width: 1, Height: 1, Hz: 1000}, nil,
		func(HAL) func() error { return func() error { return boom } })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = RunHeadless(ctx, HeadlessConfig{Width: 1, Height: 1, Hz: 10}, nil,
		func(HAL) func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestRunTerminalSimulation(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(10, 5)

	var h HAL
	sawUp := false
	newApp := func(hh HAL) func() error {
		h = hh
		fb := hh.Display().Framebuffer()
		return func() error {
			fb.ClearRGB(255, 0, 0)
			for {
				select {
				case ev := <-hh.Input().Keyboard().Events():
					if ev.Code == KeyUp && ev.Press {
						sawUp = true
					}
					continue
				default:
				}
				break
			}
			if sawUp {
				return ErrStop
			}
			return nil
		}
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		screen.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	}()
	err := runTerminal(context.Background(), screen, TerminalConfig{Hz: 200, Frames: 400}, nil, newApp)
	if err != nil {
		t.Fatalf("runTerminal: %v", err)
	}
	if !sawUp {
		t.Fatalf("arrow key never reached the app")
	}
	if fb := h.Display().Framebuffer(); fb.Width() != 10 || fb.Height() != 10 {
		t.Fatalf("framebuffer %dx%d want 10x10", fb.Width(), fb.Height())
	}
	if r, _, _, _ := screen.GetContent(0, 0); r != '▀' {
		t.Fatalf("cell rune=%q", r)
	}
}
