package zeno

import (
	"encoding/json"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// scriptStep represents a single action in a script.
type scriptStep struct {
	Action string     `json:"action"`
	Label  string     `json:"label,omitempty"`
	Key    ebiten.Key `json:"key,omitempty"`
	Event  string     `json:"event,omitempty"`
	Delta  float64    `json:"delta,omitempty"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	Frames int        `json:"frames,omitempty"`
}

// script is the top-level JSON structure for a script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner sequences injected events and screenshots across frames for
// automated visual testing. Attach to a Game via SetScript.
//
// Supported actions: "key" (key), "click" (x, y), "move" (x, y),
// "event" (event name, delta, x, y), "wait" (frames) and "screenshot" (label).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON script and returns a ScriptRunner ready to be
// attached to a Game via SetScript.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "key", "click", "move", "wait", "screenshot":
		case "event":
			if _, ok := ParseEventKind(st.Event); !ok {
				return nil, fmt.Errorf("parse script: step %d: unknown event %q", i, st.Event)
			}
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// SetScript attaches a ScriptRunner to the game. The runner's step method is
// called at the start of every Update.
func (g *Game) SetScript(runner *ScriptRunner) {
	g.script = runner
}

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame. Called from Game.Update.
func (r *ScriptRunner) step(g *Game) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if g.Pending() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		g.Screenshot(st.Label)
	case "key":
		g.InjectKey(st.Key)
	case "click":
		g.InjectClick(st.X, st.Y)
	case "move":
		g.Inject(Event{Kind: EventPointerMove, X: st.X, Y: st.Y})
	case "event":
		kind, _ := ParseEventKind(st.Event)
		g.Inject(Event{Kind: kind, Delta: st.Delta, X: st.X, Y: st.Y})
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && g.Pending() == 0 {
		r.done = true
	}
}
