package reconcile

import (
	"log/slog"
	"sync"

	"github.com/hazyhaar/annotator/annotation"
)

// Renderer presents frames. Render is called from the scheduler goroutine;
// Clear removes everything the renderer has drawn.
type Renderer interface {
	Render(Frame)
	Clear()
}

// Source returns the current annotation list. The loop treats the returned
// slice as read-only.
type Source func() []annotation.Annotation

// LoopConfig configures a Loop.
type LoopConfig struct {
	Reconciler *Reconciler
	Scheduler  Scheduler
	Renderer   Renderer
	Source     Source
	Logger     *slog.Logger
}

// Loop drives the Reconciler once per frame while running. Each frame
// schedules the next; Stop cancels the pending frame and waits for one in
// flight, so no frame is rendered after Stop returns.
//
// Renderer.Render must not call Stop: Stop waits for the frame that is
// calling it.
type Loop struct {
	rec    *Reconciler
	sched  Scheduler
	render Renderer
	source Source
	logger *slog.Logger

	frameMu sync.Mutex // held for the duration of a frame

	mu      sync.Mutex
	running bool
	gen     uint64
	pending FrameID
}

// NewLoop creates a stopped Loop.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewTimerScheduler(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = NewLogRenderer(cfg.Logger)
	}
	return &Loop{
		rec:    cfg.Reconciler,
		sched:  cfg.Scheduler,
		render: cfg.Renderer,
		source: cfg.Source,
		logger: cfg.Logger,
	}
}

// Start begins reconciling at the next frame. Starting a running loop is a
// no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.gen++
	gen := l.gen
	l.pending = l.sched.Request(func() { l.tick(gen) })
	l.logger.Debug("reconcile: loop started")
}

// Stop halts the loop, clears reconciler state and the renderer.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.gen++
	l.sched.Cancel(l.pending)
	l.mu.Unlock()

	l.frameMu.Lock()
	l.rec.Reset()
	l.render.Clear()
	l.frameMu.Unlock()
	l.logger.Debug("reconcile: loop stopped")
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Reconciler returns the loop's reconciler.
func (l *Loop) Reconciler() *Reconciler { return l.rec }

func (l *Loop) live(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && l.gen == gen
}

func (l *Loop) tick(gen uint64) {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	if !l.live(gen) {
		return
	}

	var anns []annotation.Annotation
	if l.source != nil {
		anns = l.source()
	}
	l.render.Render(l.rec.Pass(anns))

	l.mu.Lock()
	if l.running && l.gen == gen {
		l.pending = l.sched.Request(func() { l.tick(gen) })
	}
	l.mu.Unlock()
}

// LogRenderer logs frame transitions: stacks torn down, collapsed menus and
// changes in the hidden set.
type LogRenderer struct {
	logger     *slog.Logger
	lastHidden int
}

// NewLogRenderer creates a renderer that only logs.
func NewLogRenderer(logger *slog.Logger) *LogRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) Render(f Frame) {
	if len(f.TornDown) > 0 {
		r.logger.Debug("reconcile: stacks torn down", "keys", f.TornDown, "seq", f.Seq)
	}
	if f.Collapsed != "" {
		r.logger.Info("reconcile: expanded stack vanished", "key", f.Collapsed)
	}
	if len(f.Hidden) != r.lastHidden {
		r.logger.Info("reconcile: orphaned annotations changed",
			"hidden", len(f.Hidden), "markers", len(f.Markers), "stacks", len(f.Stacks))
		r.lastHidden = len(f.Hidden)
	}
}

func (r *LogRenderer) Clear() { r.lastHidden = 0 }
