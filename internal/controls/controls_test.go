package controls

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/events"
	"github.com/AaronLay10/chaintour/internal/playback"
)

const testCatalog = `
version: 1
title: test
nodes:
  - id: A
  - id: B
  - id: C
edges:
  - from: A
    to: B
    kind: data
  - from: B
    to: C
    kind: control
scenarios:
  - id: abc
    steps:
      - active: A
        duration_ms: 1000
      - active: B
        highlight: [A]
        duration_ms: 1000
      - active: C
        duration_ms: 1000
  - id: ca
    steps:
      - active: C
        duration_ms: 500
      - active: A
        duration_ms: 500
`

func newTestControls(t *testing.T, opts ...Option) (*Controls, *clock.Mock) {
	t.Helper()
	cat, err := diagram.ParseYAML([]byte(testCatalog))
	require.NoError(t, err)

	mock := clock.NewMock()
	engine := playback.New(cat.Graph, playback.WithClock(mock))
	c := New(engine, cat, opts...)
	t.Cleanup(c.Close)
	return c, mock
}

// busNames drains sub and returns the event names seen so far.
func busNames(sub events.Subscriber) []string {
	var names []string
	for {
		select {
		case e := <-sub:
			names = append(names, e.Name)
		default:
			return names
		}
	}
}

func TestInitialStateIsIdle(t *testing.T) {
	c, _ := newTestControls(t)

	s := c.State()
	assert.False(t, s.IsPlaying)
	assert.False(t, s.IsPaused)
	assert.Equal(t, -1, s.CurrentStepIndex)
	assert.Equal(t, 1.0, s.Speed)
	assert.Equal(t, playback.StatusIdle, s.Playback.Status)
	assert.Nil(t, s.Preview)
}

func TestPlayDefaultScenario(t *testing.T) {
	c, _ := newTestControls(t)

	require.NoError(t, c.Play(""))

	s := c.State()
	assert.True(t, s.IsPlaying)
	assert.Equal(t, "abc", s.Playback.ScenarioID)
	assert.Equal(t, 0, s.CurrentStepIndex)
	assert.Equal(t, []string{"A->B:data"}, s.Playback.ActiveEdges)
}

func TestPlayConfiguredDefault(t *testing.T) {
	c, _ := newTestControls(t, WithDefaultScenario("ca"))

	require.NoError(t, c.Play(""))
	assert.Equal(t, "ca", c.State().Playback.ScenarioID)
}

func TestPlayUnknownScenario(t *testing.T) {
	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	c, _ := newTestControls(t)
	require.NoError(t, c.Play("abc"))
	runID := c.State().Playback.RunID
	busNames(sub)

	err := c.Play("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownScenario))

	// The running scenario is untouched.
	s := c.State()
	assert.True(t, s.IsPlaying)
	assert.Equal(t, runID, s.Playback.RunID)
	assert.Equal(t, []string{"playback.rejected"}, busNames(sub))
}

func TestPlayResumesPausedScenario(t *testing.T) {
	c, mock := newTestControls(t)
	require.NoError(t, c.Play("abc"))
	runID := c.State().Playback.RunID

	mock.Add(400 * time.Millisecond)
	c.Pause()
	require.True(t, c.State().IsPaused)

	require.NoError(t, c.Play("abc"))
	s := c.State()
	assert.True(t, s.IsPlaying)
	assert.Equal(t, runID, s.Playback.RunID, "same run, not a restart")
	assert.Equal(t, int64(600), s.Playback.RemainingMS)
}

func TestPlayOtherScenarioWhilePausedRestarts(t *testing.T) {
	c, _ := newTestControls(t)
	require.NoError(t, c.Play("abc"))
	c.Pause()

	require.NoError(t, c.Play("ca"))
	s := c.State()
	assert.True(t, s.IsPlaying)
	assert.Equal(t, "ca", s.Playback.ScenarioID)
	assert.Equal(t, 0, s.CurrentStepIndex)
}

func TestTogglePause(t *testing.T) {
	c, _ := newTestControls(t)

	require.NoError(t, c.TogglePause())
	assert.True(t, c.State().IsPlaying, "idle toggles into playing")

	require.NoError(t, c.TogglePause())
	assert.True(t, c.State().IsPaused)

	require.NoError(t, c.TogglePause())
	assert.True(t, c.State().IsPlaying)
}

func TestResetAndSpeed(t *testing.T) {
	c, _ := newTestControls(t)
	require.NoError(t, c.Play("abc"))

	require.NoError(t, c.SetSpeed(4))
	assert.Equal(t, 4.0, c.State().Speed)
	assert.Equal(t, int64(250), c.State().Playback.RemainingMS)

	err := c.SetSpeed(0)
	assert.True(t, errors.Is(err, playback.ErrInvalidArgument))

	c.Reset()
	s := c.State()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, -1, s.CurrentStepIndex)
	assert.Empty(t, s.Playback.ActiveEdges)
	assert.Equal(t, 4.0, s.Speed, "speed survives reset")
}

func TestHoverDoesNotTouchTimeline(t *testing.T) {
	c, _ := newTestControls(t)
	require.NoError(t, c.Play("abc"))
	before := c.State().Playback

	require.NoError(t, c.Hover("C"))
	s := c.State()
	require.NotNil(t, s.Preview)
	assert.Equal(t, "C", s.Preview.NodeID)
	assert.Equal(t, []string{"B->C:control"}, s.Preview.ActiveEdges)
	assert.Equal(t, before, s.Playback)

	c.ClearHover()
	assert.Nil(t, c.State().Preview)

	err := c.Hover("Z")
	assert.True(t, errors.Is(err, ErrUnknownNode))
}

func TestIntentErrorsDoNotMatchDiagramErrors(t *testing.T) {
	dangling := errors.Wrap(diagram.ErrUnknownNode, "step 0")
	assert.False(t, errors.Is(dangling, ErrUnknownNode))
	assert.False(t, errors.Is(dangling, ErrUnknownScenario))

	c, _ := newTestControls(t)
	err := c.Hover("Z")
	assert.False(t, errors.Is(err, diagram.ErrUnknownNode))
	assert.False(t, errors.Is(err, playback.ErrInvalidScenario))

	err = c.Play("nope")
	assert.False(t, errors.Is(err, playback.ErrInvalidScenario))
}

func TestPreviewSurvivesEngineUpdates(t *testing.T) {
	c, mock := newTestControls(t)
	require.NoError(t, c.Hover("A"))
	require.NoError(t, c.Play("abc"))

	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		return c.State().CurrentStepIndex == 1
	}, time.Second, time.Millisecond)

	require.NotNil(t, c.State().Preview)
	assert.Equal(t, "A", c.State().Preview.NodeID)
}

func TestWatchDeliversStates(t *testing.T) {
	c, mock := newTestControls(t)

	ch, cancel := c.Watch()
	defer cancel()

	first := <-ch
	assert.Equal(t, playback.StatusIdle, first.Playback.Status)

	require.NoError(t, c.Play("abc"))
	started := <-ch
	assert.True(t, started.IsPlaying)
	assert.Equal(t, 0, started.CurrentStepIndex)

	mock.Add(time.Second)
	select {
	case s := <-ch:
		assert.Equal(t, 1, s.CurrentStepIndex)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for step 1")
	}

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok, "channel closed after cancel")
}

func TestSlowWatcherSeesLatestState(t *testing.T) {
	c, _ := newTestControls(t)

	ch, cancel := c.Watch()
	defer cancel()

	for i := 0; i < watchBuffer*2; i++ {
		require.NoError(t, c.Hover("A"))
		c.ClearHover()
	}
	require.NoError(t, c.Hover("B"))

	var last State
	for len(ch) > 0 {
		last = <-ch
	}
	require.NotNil(t, last.Preview)
	assert.Equal(t, "B", last.Preview.NodeID)
}

func TestEventsMirrorTransitions(t *testing.T) {
	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	c, mock := newTestControls(t)
	busNames(sub)

	require.NoError(t, c.Play("ca"))
	c.Pause()
	c.Resume()
	require.NoError(t, c.SetSpeed(2))

	mock.Add(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		return c.State().CurrentStepIndex == 1
	}, time.Second, time.Millisecond)

	mock.Add(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		return c.State().Playback.Status == playback.StatusCompleted
	}, time.Second, time.Millisecond)

	c.Reset()
	require.NoError(t, c.Hover("A"))
	c.ClearHover()

	assert.Equal(t, []string{
		"playback.started",
		"playback.paused",
		"playback.resumed",
		"playback.speed",
		"playback.step",
		"playback.completed",
		"playback.reset",
		"preview.node",
		"preview.cleared",
	}, busNames(sub))
}

func TestCloseClosesWatchers(t *testing.T) {
	c, _ := newTestControls(t)
	ch, cancel := c.Watch()
	<-ch

	c.Close()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
}
