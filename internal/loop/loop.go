// Package loop runs the per-frame bridge between the physics world and the
// scene graph: advance, propagate, render.
package loop

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tumble/internal/bind"
	"tumble/quarkgl"
)

var (
	ErrStopped    = errors.New("loop: stopped")
	ErrNotStarted = errors.New("loop: not started")
)

// Physics advances the simulation by one fixed step.
type Physics interface {
	FixedStep()
}

// Renderer draws a scene as seen from a camera.
type Renderer interface {
	Draw(scene *quarkgl.Scene, cam *quarkgl.Camera) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(scene *quarkgl.Scene, cam *quarkgl.Camera) error

func (f RendererFunc) Draw(scene *quarkgl.Scene, cam *quarkgl.Camera) error { return f(scene, cam) }

// Context is everything one simulation needs. The loop owns it; other
// goroutines reach it through Loop.Do.
type Context struct {
	Physics   Physics
	Bindings  *bind.Table
	Scene     *quarkgl.Scene
	Camera    *quarkgl.Camera
	Renderers []Renderer
}

// Stats describes the loop so far. Propagated, Pending and Failed refer to
// the last frame.
type Stats struct {
	Frames       uint64
	Propagated   int
	Pending      int
	Failed       int
	RenderErrors uint64
	FrameTime    time.Duration
}

type state uint8

const (
	stateIdle state = iota
	stateRunning
	stateFailed
	stateStopped
)

// Option configures a Loop.
type Option func(*Loop)

// WithDiagnostic sets the callback invoked when the startup check fails.
func WithDiagnostic(fn func(error)) Option {
	return func(l *Loop) { l.diag = fn }
}

// Loop runs frames over a Context. Frame, Do and Stop may be called from
// different goroutines; frames never overlap.
type Loop struct {
	mu    sync.Mutex
	c     Context
	log   *zap.Logger
	diag  func(error)
	state state
	err   error
	stats Stats
}

// New returns an idle loop over c; call Start before the first Frame.
func New(c Context, log *zap.Logger, opts ...Option) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	if c.Bindings == nil {
		c.Bindings = bind.NewTable()
	}
	l := &Loop{c: c, log: log.Named("loop")}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Start runs the host capability check once. If it fails the loop never runs
// a frame and the diagnostic callback receives the error. Later calls return
// the outcome of the first one.
func (l *Loop) Start(check func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case stateRunning:
		return nil
	case stateFailed:
		return l.err
	case stateStopped:
		return ErrStopped
	}
	if check != nil {
		if err := check(); err != nil {
			l.state = stateFailed
			l.err = fmt.Errorf("capability check: %w", err)
			l.log.Error("host capability missing, not starting", zap.Error(err))
			if l.diag != nil {
				l.diag(err)
			}
			return l.err
		}
	}
	l.state = stateRunning
	l.log.Debug("started", zap.Int("bindings", l.c.Bindings.Len()), zap.Int("renderers", len(l.c.Renderers)))
	return nil
}

// Frame runs one iteration: advance the physics by a fixed step, copy every
// resolved binding's transform, then draw with every renderer. Renderer
// errors are logged and do not fail the frame.
func (l *Loop) Frame() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case stateIdle:
		return ErrNotStarted
	case stateFailed:
		return l.err
	case stateStopped:
		return ErrStopped
	}

	start := time.Now()

	if l.c.Physics != nil {
		l.c.Physics.FixedStep()
	}

	n := 0
	for src, sink := range l.c.Bindings.ResolveAll() {
		sink.SetTransform(src.Position(), src.Orientation())
		n++
	}

	for _, r := range l.c.Renderers {
		if err := r.Draw(l.c.Scene, l.c.Camera); err != nil {
			l.stats.RenderErrors++
			l.log.Warn("render failed", zap.Uint64("frame", l.stats.Frames+1), zap.Error(err))
		}
	}

	counts := l.c.Bindings.Counts()
	l.stats.Frames++
	l.stats.Propagated = n
	l.stats.Pending = counts.Pending
	l.stats.Failed = counts.Failed
	l.stats.FrameTime = time.Since(start)
	return nil
}

// Do runs fn with exclusive access to the context, between frames.
func (l *Loop) Do(fn func(c *Context)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.c)
}

// Stop prevents further frames. It is safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == stateStopped {
		return
	}
	if l.state != stateFailed {
		l.state = stateStopped
	}
	l.log.Debug("stopped", zap.Uint64("frames", l.stats.Frames))
}

// Running reports whether Frame would run.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == stateRunning
}

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
