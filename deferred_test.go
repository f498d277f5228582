package zeno

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// recorder is a reducer that records every elapsed delta it sees.
type recorder struct {
	deltas []float64
}

func (r *recorder) Respond(s State, e Event) (State, error) {
	if e.Kind == EventElapsed {
		r.deltas = append(r.deltas, e.Delta)
	}
	return s, nil
}

func addTag(tag string) Callback {
	return func(s State) State {
		tags, _ := s.Get("tags")
		list, _ := tags.([]string)
		next := append(append([]string(nil), list...), tag)
		return s.With("tags", next)
	}
}

func tagsOf(s State) []string {
	v, _ := s.Get("tags")
	list, _ := v.([]string)
	return list
}

func mustElapse(t *testing.T, s State, d float64, r Reducer) State {
	t.Helper()
	next, err := Elapse(s, d, r)
	if err != nil {
		t.Fatalf("Elapse(%v): %v", d, err)
	}
	return next
}

func TestDeferZeroDelayRunsImmediately(t *testing.T) {
	for _, delay := range []float64{0, -1, math.Inf(-1)} {
		s := Defer(State{}, delay, addTag("now"))
		if s.PendingCount() != 0 {
			t.Errorf("delay %v queued a callback", delay)
		}
		if got := tagsOf(s); !reflect.DeepEqual(got, []string{"now"}) {
			t.Errorf("delay %v: tags = %v", delay, got)
		}
	}
}

func TestDeferNaNRunsImmediately(t *testing.T) {
	s := Defer(State{}, math.NaN(), addTag("now"))
	if s.PendingCount() != 0 || len(tagsOf(s)) != 1 {
		t.Error("NaN delay should run at once")
	}
}

func TestDeferNilCallback(t *testing.T) {
	s := Defer(State{}, 1, nil)
	if s.PendingCount() != 0 {
		t.Error("nil callback should not be queued")
	}
}

func TestDeferUsesCurrentElapsed(t *testing.T) {
	s := State{}.withElapsed(2)
	s = Defer(s, 0.5, addTag("x"))
	if got := s.Pending(); !reflect.DeepEqual(got, []float64{2.5}) {
		t.Errorf("Pending = %v, want [2.5]", got)
	}
}

func TestDeferArgs(t *testing.T) {
	args := []any{"a", 1}
	s := DeferArgs(State{}, 1, func(s State, args ...any) State {
		return s.With("args", args)
	}, args...)
	args[0] = "mutated"

	s = mustElapse(t, s, 1, nil)
	got, _ := s.Get("args")
	if !reflect.DeepEqual(got, []any{"a", 1}) {
		t.Errorf("args = %v", got)
	}
}

func TestElapseNonPositiveIsNoop(t *testing.T) {
	s := Defer(State{}, 1, addTag("x"))
	rec := &recorder{}
	for _, d := range []float64{0, -0.5, math.NaN()} {
		got := mustElapse(t, s, d, rec)
		if got.Elapsed() != 0 || got.PendingCount() != 1 {
			t.Errorf("Elapse(%v) changed state: %s", d, got)
		}
	}
	if len(rec.deltas) != 0 {
		t.Errorf("no elapsed events expected, got %v", rec.deltas)
	}
}

func TestElapseNoDeferred(t *testing.T) {
	rec := &recorder{}
	s := mustElapse(t, State{}, 0.25, rec)
	if s.Elapsed() != 0.25 {
		t.Errorf("elapsed = %v", s.Elapsed())
	}
	if !reflect.DeepEqual(rec.deltas, []float64{0.25}) {
		t.Errorf("deltas = %v", rec.deltas)
	}
}

func TestElapseSplitsAtDeadline(t *testing.T) {
	s := Defer(State{}, 1.0, addTag("tag"))

	rec := &recorder{}
	s = mustElapse(t, s, 0.4, rec)
	if !approx(s.Elapsed(), 0.4) || len(tagsOf(s)) != 0 {
		t.Fatalf("after 0.4: %s", s)
	}

	rec.deltas = nil
	s = mustElapse(t, s, 0.7, rec)
	if !reflect.DeepEqual(tagsOf(s), []string{"tag"}) {
		t.Errorf("tag missing after deadline: %s", s)
	}
	if !approx(s.Elapsed(), 1.1) {
		t.Errorf("elapsed = %v, want 1.1", s.Elapsed())
	}
	if len(rec.deltas) != 2 || !approx(rec.deltas[0], 0.6) || !approx(rec.deltas[1], 0.1) {
		t.Errorf("deltas = %v, want [0.6 0.1]", rec.deltas)
	}
	if s.PendingCount() != 0 {
		t.Error("fired callback still queued")
	}
}

func TestElapseExactDeadline(t *testing.T) {
	rec := &recorder{}
	s := Defer(State{}, 0.5, addTag("x"))
	s = mustElapse(t, s, 0.5, rec)
	if len(tagsOf(s)) != 1 || s.Elapsed() != 0.5 {
		t.Errorf("callback at exactly the target should fire: %s", s)
	}
	if !reflect.DeepEqual(rec.deltas, []float64{0.5}) {
		t.Errorf("deltas = %v, want a single 0.5 step", rec.deltas)
	}
}

func TestElapseFIFOWithinBucket(t *testing.T) {
	s := State{}
	for _, tag := range []string{"a", "b", "c"} {
		s = Defer(s, 0.5, addTag(tag))
	}
	s = Defer(s, 0.25, addTag("early"))
	s = mustElapse(t, s, 1, nil)
	if got := tagsOf(s); !reflect.DeepEqual(got, []string{"early", "a", "b", "c"}) {
		t.Errorf("tags = %v", got)
	}
}

func TestElapseCrossesManyDeadlines(t *testing.T) {
	s := State{}
	s = Defer(s, 0.75, addTag("3"))
	s = Defer(s, 0.25, addTag("1"))
	s = Defer(s, 0.5, addTag("2"))
	s = Defer(s, 2, addTag("later"))

	rec := &recorder{}
	s = mustElapse(t, s, 1, rec)
	if got := tagsOf(s); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("tags = %v", got)
	}
	if !reflect.DeepEqual(s.Pending(), []float64{2}) {
		t.Errorf("later callback should remain, pending = %v", s.Pending())
	}
	if !reflect.DeepEqual(rec.deltas, []float64{0.25, 0.25, 0.25, 0.25}) {
		t.Errorf("deltas = %v", rec.deltas)
	}
}

func TestElapseCallbackDefersWithinTarget(t *testing.T) {
	var chain Callback
	chain = func(s State) State {
		s = addTag("tick")(s)
		return Defer(s, 0.25, chain)
	}
	s := Defer(State{}, 0.25, chain)
	s = mustElapse(t, s, 1, nil)
	if got := len(tagsOf(s)); got != 4 {
		t.Errorf("chain fired %d times, want 4", got)
	}
	if !reflect.DeepEqual(s.Pending(), []float64{1.25}) {
		t.Errorf("pending = %v", s.Pending())
	}
}

func TestElapseCallbackSeesDeadlineAsElapsed(t *testing.T) {
	var seen float64
	s := Defer(State{}, 0.5, func(s State) State {
		seen = s.Elapsed()
		return s
	})
	mustElapse(t, s, 2, nil)
	if seen != 0.5 {
		t.Errorf("callback saw elapsed %v, want 0.5", seen)
	}
}

func TestElapseClockNeverRewinds(t *testing.T) {
	s := Defer(State{}, 0.5, func(s State) State {
		return s.withElapsed(0)
	})
	s = mustElapse(t, s, 1, nil)
	if s.Elapsed() != 1 {
		t.Errorf("elapsed = %v, want 1", s.Elapsed())
	}
}

func TestElapseChunkingEquivalence(t *testing.T) {
	build := func() State {
		s := State{}
		s = Defer(s, 0.125, addTag("a"))
		s = Defer(s, 0.5, addTag("b"))
		s = Defer(s, 0.5, addTag("c"))
		s = Defer(s, 1.5, addTag("d"))
		s = Defer(s, 4, addTag("e"))
		return s
	}
	total := 2.0
	chunkings := [][]float64{
		{2},
		{1, 1},
		{0.25, 0.25, 0.5, 1},
		{0.0625, 1.9375},
		{0.5, 0, 1.5},
	}

	whole := &recorder{}
	want := mustElapse(t, build(), total, whole)

	for _, chunks := range chunkings {
		rec := &recorder{}
		s := build()
		for _, c := range chunks {
			s = mustElapse(t, s, c, rec)
		}
		if s.Elapsed() != want.Elapsed() {
			t.Errorf("%v: elapsed %v, want %v", chunks, s.Elapsed(), want.Elapsed())
		}
		if !reflect.DeepEqual(s.Pending(), want.Pending()) {
			t.Errorf("%v: pending %v, want %v", chunks, s.Pending(), want.Pending())
		}
		if !reflect.DeepEqual(tagsOf(s), tagsOf(want)) {
			t.Errorf("%v: tags %v, want %v", chunks, tagsOf(s), tagsOf(want))
		}
		var sum float64
		for _, d := range rec.deltas {
			sum += d
		}
		if !approx(sum, total) {
			t.Errorf("%v: deltas sum to %v, want %v", chunks, sum, total)
		}
	}
}

func TestElapseReducerError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	r := ReducerFunc(func(s State, e Event) (State, error) {
		calls++
		return s, boom
	})
	s := Defer(State{}, 0.25, addTag("x"))
	got, err := Elapse(s, 1, r)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("reducer called %d times, want 1", calls)
	}
	if got.Elapsed() != 0.25 || len(tagsOf(got)) != 1 {
		t.Errorf("state should stop at the failing step: %s", got)
	}
}

func TestElapseDoesNotModifyInput(t *testing.T) {
	s := Defer(State{}, 0.5, addTag("x"))
	mustElapse(t, s, 1, nil)
	if s.PendingCount() != 1 || s.Elapsed() != 0 {
		t.Error("Elapse modified its input state")
	}
}
