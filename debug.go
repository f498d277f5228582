package zeno

import (
	"fmt"
	"os"
)

// warnf prints a warning to stderr. Used for failures that are contained
// rather than returned: discarded transitions and broken fallbacks.
func warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[zeno] warning: "+format+"\n", args...)
}

// debugf prints to stderr when the loop is in debug mode.
func (l *Loop) debugf(format string, args ...any) {
	if !l.cfg.Debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[zeno] "+format+"\n", args...)
}

// debugLog prints per-loop counters to stderr. Only called in debug mode,
// once per second of simulated time by the Game adapter.
func (l *Loop) debugLog() {
	if !l.cfg.Debug {
		return
	}
	st := l.Stats()
	_, _ = fmt.Fprintf(os.Stderr,
		"[zeno] applied: %d | respond errors: %d | discarded: %d | fx started: %d | flush timeouts: %d | playing: %d\n",
		st.Applied, st.RespondErrors, st.Discarded, st.FxStarted, st.FlushTimeouts, l.Playing())
}
