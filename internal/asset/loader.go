package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tumble/quarkgl"
)

var (
	// ErrPending is returned by Handle.Poll while the load is in flight.
	ErrPending = errors.New("asset: load pending")
	// ErrNodeNotFound is returned when a loaded model has no node of the
	// requested name.
	ErrNodeNotFound = errors.New("asset: node not found")
)

// Loader reads models from a file system in the background.
type Loader struct {
	fsys    fs.FS
	log     *zap.Logger
	timeout time.Duration
	delay   time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout fails loads that take longer than d. Zero disables the timeout.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// WithDelay holds every load back by d before reading, which makes the
// pending path visible on fast disks.
func WithDelay(d time.Duration) LoaderOption {
	return func(l *Loader) { l.delay = d }
}

// NewLoader returns a loader that reads models from fsys.
func NewLoader(fsys fs.FS, log *zap.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{fsys: fsys, log: log.Named("asset")}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Handle is the future result of a Load.
type Handle struct {
	path string
	done chan struct{}
	res  atomic.Pointer[result]
}

type result struct {
	node *quarkgl.Node
	err  error
}

func (h *Handle) Path() string { return h.path }

// Done is closed once the load finished, successfully or not.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Poll returns the loaded node without blocking. It returns ErrPending while
// the load is still running.
func (h *Handle) Poll() (*quarkgl.Node, error) {
	r := h.res.Load()
	if r == nil {
		return nil, ErrPending
	}
	return r.node, r.err
}

// Wait blocks until the load finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (*quarkgl.Node, error) {
	select {
	case <-h.done:
		return h.Poll()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Handle) finish(n *quarkgl.Node, err error) {
	h.res.Store(&result{node: n, err: err})
	close(h.done)
}

// Load starts reading path and returns immediately.
func (l *Loader) Load(ctx context.Context, path string) *Handle {
	h := &Handle{path: path, done: make(chan struct{})}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		go func() {
			<-h.done
			cancel()
		}()
	}

	out := make(chan result, 1)
	go func() {
		if l.delay > 0 {
			t := time.NewTimer(l.delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return
			}
		}
		n, err := l.read(path)
		out <- result{node: n, err: err}
	}()

	go func() {
		start := time.Now()
		select {
		case r := <-out:
			if r.err != nil {
				l.log.Warn("load failed", zap.String("path", path), zap.Error(r.err))
			} else {
				l.log.Info("loaded", zap.String("path", path), zap.Duration("took", time.Since(start)))
			}
			h.finish(r.node, r.err)
		case <-ctx.Done():
			err := fmt.Errorf("load %s: %w", path, ctx.Err())
			l.log.Warn("load abandoned", zap.String("path", path), zap.Error(err))
			h.finish(nil, err)
		}
	}()
	return h
}

func (l *Loader) read(path string) (*quarkgl.Node, error) {
	raw, err := fs.ReadFile(l.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	n, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
