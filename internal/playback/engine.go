// Package playback drives a scenario over a diagram in time: it decides which
// step is active, which edges are emphasized and when playback completes.
package playback

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for scheduling. Tests pass a *clock.Mock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithSpeed sets the initial speed multiplier. Values SetSpeed would refuse
// are ignored.
func WithSpeed(m float64) Option {
	return func(e *Engine) {
		if m > 0 && !math.IsInf(m, 0) {
			e.speed = m
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Engine owns the playback state of one scenario widget.
//
// All methods are safe for concurrent use. Listeners are called in the order
// state changed, one at a time, with no engine lock held. They may read the
// Engine but must not call its control methods: a control method waits until
// its own notification is delivered.
type Engine struct {
	graph  *diagram.Graph
	clock  clock.Clock
	logger *zap.SugaredLogger

	mu        sync.Mutex
	scenario  *diagram.Scenario
	runID     string
	status    Status
	stepIndex int
	speed     float64

	// remaining is the unscaled time left in the current step as of scheduledAt.
	remaining   time.Duration
	scheduledAt time.Time
	// timer is the only pending transition. gen is bumped on every cancel so
	// a callback that already escaped Stop is ignored.
	timer *clock.Timer
	gen   uint64

	listeners    []listenerEntry
	nextListener uint64

	// pending is drained by a single goroutine while delivering is set.
	// published and delivered count notifications; both are guarded by mu.
	pending    []notification
	delivering bool
	published  uint64
	delivered  uint64
	deliveredC *sync.Cond
}

type notification struct {
	snap      Snapshot
	listeners []listenerEntry
}

// New creates an idle engine over g. The graph is only read.
func New(g *diagram.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:     g,
		clock:     clock.New(),
		logger:    logger.Named("playback"),
		status:    StatusIdle,
		stepIndex: -1,
		speed:     1,
	}
	e.deliveredC = sync.NewCond(&e.mu)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the diagram the engine highlights.
func (e *Engine) Graph() *diagram.Graph {
	return e.graph
}

// Subscribe registers l for state changes and returns a function removing it.
func (e *Engine) Subscribe(l Listener) func() {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: l})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, le := range e.listeners {
			if le.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Start cancels whatever is playing and begins s at step 0.
// Step 0 is published before Start returns. An invalid scenario is refused
// and the current state is left untouched.
func (e *Engine) Start(s *diagram.Scenario) error {
	if err := e.graph.ValidateScenario(s); err != nil {
		id := ""
		if s != nil {
			id = s.ID
		}
		e.logger.Warnw("scenario refused", logger.FieldScenario, id, logger.FieldError, err)
		err = errors.Mark(errors.Wrapf(err, "start scenario %q", id), ErrInvalidScenario)
		return errors.WithHint(err, "fix the scenario definition and start it again")
	}

	sc := cloneScenario(s)

	e.mu.Lock()
	e.cancelLocked()
	e.scenario = sc
	e.runID = uuid.NewString()
	e.status = StatusRunning
	e.stepIndex = 0
	e.remaining = sc.Steps[0].Duration()
	e.scheduleLocked()

	e.logger.Infow("playback started",
		logger.FieldScenario, sc.ID,
		logger.FieldRunID, e.runID,
		logger.FieldSpeed, e.speed,
		"steps", len(sc.Steps))

	e.publishLocked()
	return nil
}

// Pause stops the clock on the current step. No-op unless running.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	e.remaining = e.remainingLocked()
	e.cancelLocked()
	e.status = StatusPaused

	e.logger.Debugw("playback paused", logger.FieldStep, e.stepIndex, "remaining", e.remaining)
	e.publishLocked()
}

// Resume continues a paused step with the time it had left, scaled by the
// current speed. No-op unless paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.status != StatusPaused {
		e.mu.Unlock()
		return
	}
	e.status = StatusRunning
	e.scheduleLocked()

	e.logger.Debugw("playback resumed", logger.FieldStep, e.stepIndex, "remaining", e.remaining)
	e.publishLocked()
}

// Reset cancels any pending transition and returns to Idle from any status.
// The speed multiplier is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cancelLocked()
	e.scenario = nil
	e.runID = ""
	e.status = StatusIdle
	e.stepIndex = -1
	e.remaining = 0

	e.logger.Debugw("playback reset")
	e.publishLocked()
}

// SetSpeed changes the speed multiplier. While running, the pending
// transition is rescheduled so the progress already made in the step is kept.
func (e *Engine) SetSpeed(m float64) error {
	if !(m > 0) || math.IsInf(m, 0) {
		return errors.Wrapf(ErrInvalidArgument, "speed multiplier must be positive and finite, got %v", m)
	}

	e.mu.Lock()
	old := e.speed
	if e.status == StatusRunning {
		e.remaining = e.remainingLocked()
		e.speed = m
		e.scheduleLocked()
	} else {
		e.speed = m
	}

	e.logger.Debugw("speed changed", "from", old, "to", m, logger.FieldStatus, e.status)
	e.publishLocked()
	return nil
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Status returns the current status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Snapshot returns a consistent copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// advance is the timer callback for generation gen.
func (e *Engine) advance(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	e.timer = nil

	next := e.stepIndex + 1
	if next < len(e.scenario.Steps) {
		e.stepIndex = next
		e.remaining = e.scenario.Steps[next].Duration()
		e.scheduleLocked()
		e.logger.Debugw("step",
			logger.FieldScenario, e.scenario.ID,
			logger.FieldStep, next,
			logger.FieldNode, e.scenario.Steps[next].Active)
	} else {
		e.gen++
		e.status = StatusCompleted
		e.remaining = 0
		e.logger.Infow("playback completed", logger.FieldScenario, e.scenario.ID, logger.FieldRunID, e.runID)
	}
	e.publishLocked()
}

// scheduleLocked arms the transition out of the current step.
func (e *Engine) scheduleLocked() {
	e.cancelLocked()
	gen := e.gen
	e.scheduledAt = e.clock.Now()
	e.timer = e.clock.AfterFunc(scale(e.remaining, e.speed), func() {
		e.advance(gen)
	})
}

// cancelLocked drops the pending transition, if any. Safe to repeat.
func (e *Engine) cancelLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// remainingLocked returns the unscaled time left in the current step.
func (e *Engine) remainingLocked() time.Duration {
	if e.status != StatusRunning {
		return e.remaining
	}
	elapsed := e.clock.Now().Sub(e.scheduledAt)
	left := e.remaining - time.Duration(float64(elapsed)*e.speed)
	if left < 0 {
		return 0
	}
	return left
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:      e.status,
		RunID:       e.runID,
		StepIndex:   e.stepIndex,
		ActiveEdges: []string{},
		Speed:       e.speed,
	}
	if e.scenario == nil || e.stepIndex < 0 {
		return snap
	}

	step := e.scenario.Steps[e.stepIndex]
	snap.ScenarioID = e.scenario.ID
	snap.StepCount = len(e.scenario.Steps)
	snap.ActiveNode = step.Active
	snap.Highlight = append([]string(nil), step.Highlight...)
	snap.Description = step.Description
	snap.ActiveEdges = diagram.ActiveEdges(e.graph, step)
	snap.RemainingMS = scale(e.remainingLocked(), e.speed).Milliseconds()
	return snap
}

// publishLocked queues the new state for listeners and releases e.mu once it
// has been delivered. The first publisher to find the queue idle drains it;
// later publishers wait for their turn instead of running listeners.
func (e *Engine) publishLocked() {
	e.pending = append(e.pending, notification{
		snap:      e.snapshotLocked(),
		listeners: append([]listenerEntry(nil), e.listeners...),
	})
	e.published++
	seq := e.published

	if e.delivering {
		for e.delivered < seq {
			e.deliveredC.Wait()
		}
		e.mu.Unlock()
		return
	}

	e.delivering = true
	for len(e.pending) > 0 {
		n := e.pending[0]
		e.pending[0] = notification{}
		e.pending = e.pending[1:]
		e.mu.Unlock()

		for _, le := range n.listeners {
			le.fn(n.snap)
		}

		e.mu.Lock()
		e.delivered++
		e.deliveredC.Broadcast()
	}
	e.delivering = false
	e.mu.Unlock()
}

// scale converts a nominal duration to wall-clock time at speed m.
func scale(d time.Duration, m float64) time.Duration {
	return time.Duration(float64(d) / m)
}

func cloneScenario(s *diagram.Scenario) *diagram.Scenario {
	c := *s
	c.Steps = make([]diagram.Step, len(s.Steps))
	for i, st := range s.Steps {
		st.Highlight = append([]string(nil), st.Highlight...)
		c.Steps[i] = st
	}
	return &c
}
