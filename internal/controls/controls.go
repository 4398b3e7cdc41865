// Package controls translates viewer intents into playback engine calls and
// exposes the engine's state as observable values for renderers.
package controls

import (
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/events"
	"github.com/AaronLay10/chaintour/internal/logger"
	"github.com/AaronLay10/chaintour/internal/playback"
)

// Intent errors. Messages must stay distinct from the diagram and playback
// sentinels because errors.Is also matches on message.
var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrUnknownNode     = errors.New("unknown hover node")
)

// watchBuffer is the per-watcher backlog before older states are dropped.
const watchBuffer = 16

// Preview is a hover highlight. It is never part of the timeline.
type Preview struct {
	NodeID      string   `json:"node_id"`
	ActiveEdges []string `json:"active_edges"`
}

// State is what a renderer needs to paint the diagram and its controls.
type State struct {
	IsPlaying        bool              `json:"is_playing"`
	IsPaused         bool              `json:"is_paused"`
	Speed            float64           `json:"speed"`
	CurrentStepIndex int               `json:"current_step_index"`
	Playback         playback.Snapshot `json:"playback"`
	Preview          *Preview          `json:"preview,omitempty"`
}

// Option configures Controls.
type Option func(*Controls)

// WithDefaultScenario sets the scenario Play starts when given no ID.
func WithDefaultScenario(id string) Option {
	return func(c *Controls) {
		c.defaultScenario = id
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controls) {
		c.logger = l
	}
}

// Controls is a pass-through between UI events and one playback engine.
// It holds no timers; all scheduling stays in the engine.
type Controls struct {
	engine          *playback.Engine
	catalog         *diagram.Catalog
	defaultScenario string
	logger          *zap.SugaredLogger

	mu          sync.RWMutex
	state       State
	watchers    map[chan State]struct{}
	unsubscribe func()
}

// New wires Controls to engine. The catalog supplies scenarios by ID.
func New(engine *playback.Engine, catalog *diagram.Catalog, opts ...Option) *Controls {
	c := &Controls{
		engine:   engine,
		catalog:  catalog,
		logger:   logger.Named("controls"),
		watchers: make(map[chan State]struct{}),
	}
	if len(catalog.Scenarios) > 0 {
		c.defaultScenario = catalog.Scenarios[0].ID
	}
	for _, opt := range opts {
		opt(c)
	}

	c.state = stateFrom(engine.Snapshot(), nil)
	c.unsubscribe = engine.Subscribe(c.onSnapshot)
	return c
}

// Catalog returns the scenarios Controls can play.
func (c *Controls) Catalog() *diagram.Catalog {
	return c.catalog
}

// State returns the current observable state.
func (c *Controls) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Watch streams state changes, starting with the current state. Slow
// watchers lose intermediate states but always see the latest one.
func (c *Controls) Watch() (<-chan State, func()) {
	ch := make(chan State, watchBuffer)

	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	ch <- c.state
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.watchers[ch]; ok {
				delete(c.watchers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Play starts scenarioID, or resumes it if it is the paused scenario.
// An empty ID resumes whatever is paused, or starts the default scenario.
func (c *Controls) Play(scenarioID string) error {
	snap := c.engine.Snapshot()
	if snap.Status == playback.StatusPaused && (scenarioID == "" || scenarioID == snap.ScenarioID) {
		c.engine.Resume()
		return nil
	}
	if scenarioID == "" {
		if snap.Status == playback.StatusRunning {
			return nil
		}
		scenarioID = c.defaultScenario
	}

	s := c.catalog.Scenario(scenarioID)
	if s == nil {
		err := errors.Wrapf(ErrUnknownScenario, "%q", scenarioID)
		c.reject(scenarioID, err)
		return err
	}
	if err := c.engine.Start(s); err != nil {
		c.reject(scenarioID, err)
		return err
	}
	return nil
}

// Pause pauses a running playback.
func (c *Controls) Pause() {
	c.engine.Pause()
}

// Resume resumes a paused playback.
func (c *Controls) Resume() {
	c.engine.Resume()
}

// TogglePause is the play/pause button: pause when running, resume when
// paused, otherwise play the default scenario.
func (c *Controls) TogglePause() error {
	switch c.engine.Status() {
	case playback.StatusRunning:
		c.engine.Pause()
	case playback.StatusPaused:
		c.engine.Resume()
	default:
		return c.Play("")
	}
	return nil
}

// Reset stops playback and clears the highlight.
func (c *Controls) Reset() {
	c.engine.Reset()
}

// SetSpeed forwards the speed slider.
func (c *Controls) SetSpeed(m float64) error {
	return c.engine.SetSpeed(m)
}

// Hover previews the edges around nodeID without touching the timeline.
func (c *Controls) Hover(nodeID string) error {
	g := c.engine.Graph()
	if !g.HasNode(nodeID) {
		return errors.Wrapf(ErrUnknownNode, "%q", nodeID)
	}

	p := &Preview{
		NodeID:      nodeID,
		ActiveEdges: diagram.EdgesTouching(g, nodeID),
	}

	c.mu.Lock()
	c.state.Preview = p
	c.notifyLocked()
	c.mu.Unlock()

	emit("preview.node", map[string]interface{}{
		logger.FieldNode: nodeID,
		"edges":          p.ActiveEdges,
	})
	return nil
}

// ClearHover drops the preview highlight.
func (c *Controls) ClearHover() {
	c.mu.Lock()
	if c.state.Preview == nil {
		c.mu.Unlock()
		return
	}
	c.state.Preview = nil
	c.notifyLocked()
	c.mu.Unlock()

	emit("preview.cleared", nil)
}

// Close detaches from the engine and closes every watcher.
func (c *Controls) Close() {
	c.unsubscribe()

	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.watchers {
		close(ch)
	}
	c.watchers = make(map[chan State]struct{})
}

// onSnapshot runs on every engine notification, in engine order.
func (c *Controls) onSnapshot(snap playback.Snapshot) {
	c.mu.Lock()
	prev := c.state.Playback
	c.state = stateFrom(snap, c.state.Preview)
	c.notifyLocked()
	c.mu.Unlock()

	for _, name := range transitions(prev, snap) {
		emit(name, snapshotFields(snap))
	}
}

// notifyLocked pushes the current state to every watcher, dropping the
// oldest buffered state when a watcher is full.
func (c *Controls) notifyLocked() {
	for ch := range c.watchers {
		select {
		case ch <- c.state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c.state:
		default:
		}
	}
}

func (c *Controls) reject(scenarioID string, err error) {
	c.logger.Warnw("play refused", logger.FieldScenario, scenarioID, logger.FieldError, err)
	emit("playback.rejected", map[string]interface{}{
		logger.FieldScenario: scenarioID,
		logger.FieldError:    err.Error(),
	})
}

func stateFrom(snap playback.Snapshot, preview *Preview) State {
	return State{
		IsPlaying:        snap.Status == playback.StatusRunning,
		IsPaused:         snap.Status == playback.StatusPaused,
		Speed:            snap.Speed,
		CurrentStepIndex: snap.StepIndex,
		Playback:         snap,
		Preview:          preview,
	}
}

// transitions names the bus events implied by moving from prev to next.
func transitions(prev, next playback.Snapshot) []string {
	var names []string
	if next.Speed != prev.Speed {
		names = append(names, "playback.speed")
	}

	switch next.Status {
	case playback.StatusRunning:
		switch {
		case next.RunID != prev.RunID:
			names = append(names, "playback.started")
		case prev.Status == playback.StatusPaused:
			names = append(names, "playback.resumed")
		case next.StepIndex != prev.StepIndex:
			names = append(names, "playback.step")
		}
	case playback.StatusPaused:
		if prev.Status != playback.StatusPaused {
			names = append(names, "playback.paused")
		}
	case playback.StatusCompleted:
		if prev.Status != playback.StatusCompleted {
			names = append(names, "playback.completed")
		}
	case playback.StatusIdle:
		if prev.Status != playback.StatusIdle {
			names = append(names, "playback.reset")
		}
	}
	return names
}

func snapshotFields(snap playback.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		logger.FieldScenario: snap.ScenarioID,
		logger.FieldRunID:    snap.RunID,
		logger.FieldStep:     snap.StepIndex,
		logger.FieldNode:     snap.ActiveNode,
		logger.FieldStatus:   string(snap.Status),
		logger.FieldSpeed:    snap.Speed,
		"edges":              snap.ActiveEdges,
		"description":        snap.Description,
	}
}

func emit(name string, fields map[string]interface{}) {
	if _, err := events.Emit("info", name, "", fields); err != nil {
		logger.Logger.Errorw("event emit failed", "event", name, logger.FieldError, err)
	}
}
