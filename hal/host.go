package hal

import "go.uber.org/zap"

type hostHAL struct {
	log   *zap.Logger
	fb    *hostFramebuffer
	kbd   *hostKeyboard
	probe error
}

// New returns a host HAL with a width x height framebuffer.
func New(log *zap.Logger, width, height int) HAL {
	return newHostHAL(log, width, height)
}

func newHostHAL(log *zap.Logger, width, height int) *hostHAL {
	if log == nil {
		log = zap.NewNop()
	}
	return &hostHAL{
		log: log,
		fb:  newHostFramebuffer(width, height),
		kbd: newHostKeyboard(),
	}
}

func (h *hostHAL) Logger() *zap.Logger { return h.log }
func (h *hostHAL) Display() Display    { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input        { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Probe() error        { return h.probe }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer {
	if d.fb == nil {
		return nil
	}
	return d.fb
}

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent, 64)}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }

// push drops the event when the queue is full.
func (k *hostKeyboard) push(ev KeyEvent) {
	select {
	case k.ch <- ev:
	default:
	}
}
