// Package bind maps physics bodies to the render nodes they drive.
//
// A binding is weak: it owns neither side and its render side may resolve
// lazily, for example once an asynchronously loaded model is available.
package bind

import (
	"iter"

	"github.com/go-gl/mathgl/mgl32"
)

// Source is the driving side of a binding, usually a physics body or wheel.
type Source interface {
	Position() mgl32.Vec3
	Orientation() mgl32.Quat
}

// Sink is the driven side of a binding, usually a scene node.
type Sink interface {
	SetTransform(pos mgl32.Vec3, rot mgl32.Quat)
}

// Resolver produces the Sink of a binding. A nil Sink with a nil error means
// the sink is not available yet; Resolve will be asked again next frame.
// A non-nil error retires the binding.
type Resolver interface {
	Resolve() (Sink, error)
}

// Func adapts a function to Resolver.
type Func func() (Sink, error)

func (f Func) Resolve() (Sink, error) { return f() }

type ready struct{ s Sink }

func (r ready) Resolve() (Sink, error) { return r.s, nil }

// Ready returns a resolver that is already resolved to s.
func Ready(s Sink) Resolver { return ready{s} }

type state uint8

const (
	statePending state = iota
	stateResolved
	stateFailed
)

type binding struct {
	src   Source
	r     Resolver
	sink  Sink
	state state
}

// Counts summarizes binding states.
type Counts struct {
	Resolved int
	Pending  int
	Failed   int
}

// Option configures a Table.
type Option func(*Table)

// WithFailureHook sets fn to be called once for every binding whose resolver
// fails.
func WithFailureHook(fn func(src Source, err error)) Option {
	return func(t *Table) { t.onFailure = fn }
}

// Table holds bindings in registration order. It is not safe for concurrent
// use; the synchronization loop is its only reader.
type Table struct {
	bindings  []*binding
	onFailure func(Source, error)
}

// NewTable returns an empty binding table.
func NewTable(opts ...Option) *Table {
	t := &Table{}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Register adds a binding from src to whatever r resolves to. It always
// succeeds; r is not consulted until the next ResolveAll.
func (t *Table) Register(src Source, r Resolver) {
	t.bindings = append(t.bindings, &binding{src: src, r: r})
}

// Len returns the number of registered bindings, including retired ones.
func (t *Table) Len() int { return len(t.bindings) }

// Counts returns the number of bindings in each state.
func (t *Table) Counts() Counts {
	var c Counts
	for _, b := range t.bindings {
		switch b.state {
		case stateResolved:
			c.Resolved++
		case stateFailed:
			c.Failed++
		default:
			c.Pending++
		}
	}
	return c
}

// ResolveAll yields every currently resolved (Source, Sink) pair. Pending
// resolvers are polled once per call and skipped while they have nothing to
// offer. A resolved sink is kept, so repeated calls without new resolutions
// yield the same pairs.
func (t *Table) ResolveAll() iter.Seq2[Source, Sink] {
	return func(yield func(Source, Sink) bool) {
		for _, b := range t.bindings {
			if b.state == statePending {
				t.poll(b)
			}
			if b.state != stateResolved {
				continue
			}
			if !yield(b.src, b.sink) {
				return
			}
		}
	}
}

func (t *Table) poll(b *binding) {
	if b.r == nil {
		return
	}
	sink, err := b.r.Resolve()
	switch {
	case err != nil:
		b.state = stateFailed
		b.r = nil
		if t.onFailure != nil {
			t.onFailure(b.src, err)
		}
	case sink != nil:
		b.state = stateResolved
		b.sink = sink
		b.r = nil
	}
}
