package zeno

import (
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// GameConfig configures the Ebitengine adapter.
type GameConfig struct {
	// Width and Height fix the logical screen size. Zero follows the window.
	Width, Height int
	// ClearColor fills the screen before the state is drawn. The zero value
	// clears to transparent black.
	ClearColor Color
	// ShowFPS overlays the current FPS and TPS in the top-left corner.
	ShowFPS bool
	// WallClock measures frame deltas with the system clock instead of the
	// fixed 1/TPS step.
	WallClock bool
	// ScreenshotDir is where Screenshot writes PNGs. Default "screenshots".
	ScreenshotDir string
	// Debug logs dispatched events and loop counters to stderr.
	Debug bool
}

// Game adapts a Loop to ebiten.Game. Each Update polls input and dispatches
// it, then dispatches one new-frame event; Draw renders the loop's current
// state over the whole screen.
type Game struct {
	loop       *Loop
	dispatcher *Dispatcher
	cfg        GameConfig

	input  inputState
	script *ScriptRunner
	fps    *fpsOverlay

	injectMu    sync.Mutex
	injectQueue []Event

	shotMu          sync.Mutex
	screenshotQueue []string
	shotSeq         uint64 // only touched from Draw

	lastTick   time.Time
	layoutW    int
	layoutH    int
	statsTimer float64
}

// NewGame creates a Game that dispatches to a fresh Dispatcher with loop
// attached. Attach further handlers through Dispatcher.
func NewGame(loop *Loop, cfg GameConfig) *Game {
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "screenshots"
	}
	g := &Game{
		loop:       loop,
		dispatcher: NewDispatcher(),
		cfg:        cfg,
	}
	g.dispatcher.SetDebugMode(cfg.Debug)
	g.dispatcher.Attach(loop)
	loop.ReportTo(HandlerFunc(g.dispatcher.Dispatch))
	if cfg.ShowFPS {
		g.fps = newFPSOverlay()
	}
	return g
}

// Loop returns the coordinator driven by this game.
func (g *Game) Loop() *Loop {
	return g.loop
}

// Dispatcher returns the dispatcher every input and tick event goes through.
func (g *Game) Dispatcher() *Dispatcher {
	return g.dispatcher
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.script != nil {
		g.script.step(g)
	}
	if !g.processInjected() {
		g.input.translate(g.input.read(), g.dispatcher.Dispatch)
	}

	dt := g.frameDelta()
	if g.fps != nil {
		g.fps.update(dt)
	}
	g.dispatcher.Dispatch(NewFrame(dt))

	if g.cfg.Debug {
		g.statsTimer += dt
		if g.statsTimer >= 1 {
			g.statsTimer = 0
			g.loop.debugLog()
		}
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.cfg.ClearColor.A > 0 {
		screen.Fill(g.cfg.ClearColor.toRGBA())
	} else {
		screen.Clear()
	}
	b := screen.Bounds()
	_ = g.loop.Draw(screen, Rect{
		X: float64(b.Min.X), Y: float64(b.Min.Y),
		Width: float64(b.Dx()), Height: float64(b.Dy()),
	})
	if g.fps != nil {
		g.fps.draw(screen)
	}
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game. A change in the outside size is dispatched
// as a resize event carrying the logical size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := outsideWidth, outsideHeight
	if g.cfg.Width > 0 && g.cfg.Height > 0 {
		w, h = g.cfg.Width, g.cfg.Height
	}
	if w != g.layoutW || h != g.layoutH {
		g.layoutW, g.layoutH = w, h
		g.dispatcher.Dispatch(Event{Kind: EventResize, Width: w, Height: h})
	}
	return w, h
}

// frameDelta returns the simulated seconds for this tick: 1/TPS by default,
// measured wall time when configured or when TPS is synced to FPS.
func (g *Game) frameDelta() float64 {
	tps := ebiten.TPS()
	if !g.cfg.WallClock && tps > 0 {
		return 1.0 / float64(tps)
	}
	now := time.Now()
	if g.lastTick.IsZero() {
		g.lastTick = now
		if tps > 0 {
			return 1.0 / float64(tps)
		}
		return 1.0 / ebiten.DefaultTPS
	}
	dt := now.Sub(g.lastTick).Seconds()
	g.lastTick = now
	return dt
}

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title      string
	Width      int
	Height     int
	Resizable  bool
	ShowFPS    bool
	WallClock  bool
	ClearColor Color
	Debug      bool
}

// Run opens a window and drives loop until the window closes.
// A resizable window follows the window size; otherwise the logical screen
// stays at Width x Height.
func Run(loop *Loop, cfg RunConfig) error {
	gc := GameConfig{
		ClearColor: cfg.ClearColor,
		ShowFPS:    cfg.ShowFPS,
		WallClock:  cfg.WallClock,
		Debug:      cfg.Debug,
	}
	if !cfg.Resizable {
		gc.Width, gc.Height = cfg.Width, cfg.Height
	}
	return RunGame(NewGame(loop, gc), cfg)
}

// RunGame is Run for a Game built by the caller, for example with extra
// handlers attached.
func RunGame(g *Game, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	return ebiten.RunGame(g)
}
