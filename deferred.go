package zeno

// Callback is a state transformation scheduled with Defer.
type Callback func(State) State

// Defer schedules fn to run once delay seconds of simulated time have
// elapsed. A delay that is not positive runs fn immediately and returns its
// result; nothing is queued.
//
// Callbacks sharing the exact same run-time fire in the order they were
// deferred.
func Defer(s State, delay float64, fn Callback) State {
	if fn == nil {
		return s
	}
	if !(delay > 0) {
		return fn(s)
	}
	return s.withDeferred(s.elapsed+delay, fn)
}

// DeferArgs is Defer for callbacks that take extra arguments. The arguments
// are captured now and passed when the callback fires.
func DeferArgs(s State, delay float64, fn func(State, ...any) State, args ...any) State {
	bound := append([]any(nil), args...)
	return Defer(s, delay, func(s State) State {
		return fn(s, bound...)
	})
}

// Elapse advances the simulated clock by delta seconds, firing every deferred
// callback whose run-time falls within the advance in ascending time order.
//
// The clock stops at each run-time, the callbacks there are folded over the
// state, and an elapsed event for the step is reduced through r before moving
// on. Callbacks may defer further work; anything landing at or before the
// target is fired in the same call. Splitting one advance into several
// smaller ones yields the same state and the same elapsed deltas, split at
// the same deadlines.
//
// A delta that is not positive returns s unchanged. The only error source is
// r; on error the state reached so far is returned with it.
func Elapse(s State, delta float64, r Reducer) (State, error) {
	if !(delta > 0) {
		return s, nil
	}
	target := s.elapsed + delta
	for {
		due, next, ok := s.popDue(target)
		if !ok {
			break
		}
		prev := next.elapsed
		next = next.withElapsed(due.at)
		for _, fn := range due.callbacks {
			next = fn(next)
		}
		if next.elapsed < due.at {
			next = next.withElapsed(due.at)
		}
		s = next
		if step := due.at - prev; step > 0 {
			var err error
			if s, err = Reduce(r, s, Elapsed(step)); err != nil {
				return s, err
			}
		}
	}
	prev := s.elapsed
	if step := target - prev; step > 0 {
		s = s.withElapsed(target)
		return Reduce(r, s, Elapsed(step))
	}
	return s, nil
}
