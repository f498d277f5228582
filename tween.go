package zeno

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenStep is the simulated interval, in seconds, between tween updates.
const TweenStep = 1.0 / 60

// Tween animates the float value under key from one value to another over
// duration seconds of simulated time. The start value is written at once and
// each following step is a deferred callback, so the animation advances with
// Elapse and is unaffected by how frame deltas are chunked.
//
// A nil fn eases linearly. A duration that is not positive writes to at once.
func Tween(s State, key string, from, to, duration float64, fn ease.TweenFunc) State {
	if !(duration > 0) {
		return s.With(key, to)
	}
	if fn == nil {
		fn = ease.Linear
	}
	start := s.Elapsed()
	var step Callback
	step = func(s State) State {
		// Each step builds its own tween so no mutable state is shared
		// between States.
		tw := gween.New(float32(from), float32(to), float32(duration), fn)
		v, finished := tw.Update(float32(s.Elapsed() - start))
		if finished {
			return s.With(key, to)
		}
		return Defer(s.With(key, float64(v)), TweenStep, step)
	}
	return Defer(s.With(key, from), TweenStep, step)
}

// TweenFx is an effect that starts a Tween when it first appears in the
// fx-queue. Its identity ignores Ease, which is not comparable.
type TweenFx struct {
	Key      string
	From, To float64
	Duration float64
	Ease     ease.TweenFunc
}

type tweenKey struct {
	key                string
	from, to, duration float64
}

// EffectKey implements EffectKeyer.
func (t TweenFx) EffectKey() any {
	return tweenKey{t.Key, t.From, t.To, t.Duration}
}

// Run submits the tween to the loop.
func (t TweenFx) Run(sub Submitter) error {
	sub.Submit(func(s State) State {
		return Tween(s, t.Key, t.From, t.To, t.Duration, t.Ease)
	})
	return nil
}
