package bind

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeSource struct {
	pos mgl32.Vec3
	rot mgl32.Quat
}

func (s *fakeSource) Position() mgl32.Vec3    { return s.pos }
func (s *fakeSource) Orientation() mgl32.Quat { return s.rot }

type fakeSink struct {
	pos   mgl32.Vec3
	rot   mgl32.Quat
	calls int
}

func (s *fakeSink) SetTransform(pos mgl32.Vec3, rot mgl32.Quat) {
	s.pos, s.rot = pos, rot
	s.calls++
}

func collect(t *Table) map[Source]Sink {
	out := make(map[Source]Sink)
	for src, sink := range t.ResolveAll() {
		out[src] = sink
	}
	return out
}

func TestReadyBindingResolvesImmediately(t *testing.T) {
	tbl := NewTable()
	src := &fakeSource{}
	sink := &fakeSink{}
	tbl.Register(src, Ready(sink))

	got := collect(tbl)
	if len(got) != 1 || got[src] != sink {
		t.Fatalf("pairs=%v", got)
	}
	if c := tbl.Counts(); c.Resolved != 1 || c.Pending != 0 {
		t.Fatalf("counts=%+v", c)
	}
}

func TestPendingBindingIsSkippedUntilResolved(t *testing.T) {
	tbl := NewTable()
	src := &fakeSource{}
	sink := &fakeSink{}
	var available bool
	polls := 0
	tbl.Register(src, Func(func() (Sink, error) {
		polls++
		if !available {
			return nil, nil
		}
		return sink, nil
	}))

	for i := 0; i < 3; i++ {
		if got := collect(tbl); len(got) != 0 {
			t.Fatalf("frame %d: pending binding yielded %v", i, got)
		}
	}
	if c := tbl.Counts(); c.Pending != 1 {
		t.Fatalf("counts=%+v", c)
	}

	available = true
	for i := 0; i < 3; i++ {
		if got := collect(tbl); got[src] != sink {
			t.Fatalf("frame %d after resolve: pairs=%v", i, got)
		}
	}
	if polls != 4 {
		t.Fatalf("resolver polled %d times, want 4", polls)
	}
}

func TestResolveAllIsIdempotent(t *testing.T) {
	tbl := NewTable()
	body := &fakeSource{}
	a, b := &fakeSink{}, &fakeSink{}
	tbl.Register(body, Ready(a))
	tbl.Register(body, Ready(b))
	tbl.Register(&fakeSource{}, Func(func() (Sink, error) { return nil, nil }))

	var first, second []Sink
	for _, s := range tbl.ResolveAll() {
		first = append(first, s)
	}
	for _, s := range tbl.ResolveAll() {
		second = append(second, s)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("first=%v second=%v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pair %d changed: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestFailedBindingReportedOnce(t *testing.T) {
	errLoad := errors.New("load failed")
	var reported []error
	tbl := NewTable(WithFailureHook(func(src Source, err error) {
		reported = append(reported, err)
	}))
	tbl.Register(&fakeSource{}, Func(func() (Sink, error) { return nil, errLoad }))

	for i := 0; i < 5; i++ {
		if got := collect(tbl); len(got) != 0 {
			t.Fatalf("failed binding yielded %v", got)
		}
	}
	if len(reported) != 1 || !errors.Is(reported[0], errLoad) {
		t.Fatalf("reported=%v", reported)
	}
	if c := tbl.Counts(); c.Failed != 1 || c.Pending != 0 {
		t.Fatalf("counts=%+v", c)
	}
	if tbl.Len() != 1 {
		t.Fatalf("len=%d", tbl.Len())
	}
}

func TestResolveAllStopsEarly(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 4; i++ {
		tbl.Register(&fakeSource{}, Ready(&fakeSink{}))
	}
	n := 0
	for range tbl.ResolveAll() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("n=%d", n)
	}
}

func TestEmptyTable(t *testing.T) {
	tbl := NewTable()
	if got := collect(tbl); len(got) != 0 {
		t.Fatalf("pairs=%v", got)
	}
	if c := tbl.Counts(); c != (Counts{}) {
		t.Fatalf("counts=%+v", c)
	}
}
