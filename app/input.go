package app

import (
	"tumble/hal"
	"tumble/quarkgl"
)

const (
	orbitStep = 0.05
	zoomStep  = 0.5
)

// controls is the set of held driving keys.
type controls struct {
	forward, back bool
	left, right   bool
	brake         bool
}

// handleKey applies one key event. It returns hal.ErrStop for Escape.
func (a *App) handleKey(ev hal.KeyEvent) error {
	switch ev.Code {
	case hal.KeyUp:
		a.ctrl.forward = ev.Press
		return nil
	case hal.KeyDown:
		a.ctrl.back = ev.Press
		return nil
	case hal.KeyLeft:
		a.ctrl.left = ev.Press
		return nil
	case hal.KeyRight:
		a.ctrl.right = ev.Press
		return nil
	case hal.KeySpace:
		a.ctrl.brake = ev.Press
		return nil
	}

	if !ev.Press {
		return nil
	}
	switch ev.Code {
	case hal.KeyEscape:
		return hal.ErrStop
	case hal.KeyTab, hal.KeyF1:
		a.hud = !a.hud
		return nil
	}

	switch ev.Rune {
	case 'w', 'W':
		if a.renderer.Mode == quarkgl.RenderWireframe {
			a.renderer.SetRenderMode(quarkgl.RenderSolidFlat)
		} else {
			a.renderer.SetRenderMode(quarkgl.RenderWireframe)
		}
	case 'a', 'A':
		a.orbit.Rotate(-orbitStep, 0)
	case 'd', 'D':
		a.orbit.Rotate(orbitStep, 0)
	case 'z', 'Z':
		a.orbit.Rotate(0, -orbitStep)
	case 'x', 'X':
		a.orbit.Rotate(0, orbitStep)
	case '+', '=':
		a.orbit.Zoom(-zoomStep)
	case '-':
		a.orbit.Zoom(zoomStep)
	case 'q', 'Q':
		return hal.ErrStop
	}
	return nil
}

// pollInput drains pending key events without blocking.
func (a *App) pollInput() error {
	kbd := a.keyboard()
	if kbd == nil {
		return nil
	}
	ch := kbd.Events()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := a.handleKey(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (a *App) keyboard() hal.Keyboard {
	in := a.h.Input()
	if in == nil {
		return nil
	}
	return in.Keyboard()
}
