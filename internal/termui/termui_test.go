package termui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/chaintour/internal/controls"
	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/playback"
)

func init() {
	color.NoColor = true
}

func testGraph(t *testing.T) *diagram.Graph {
	t.Helper()
	g, err := diagram.NewGraph(
		[]diagram.Node{{ID: "A", Label: "Alpha"}, {ID: "B"}},
		[]diagram.Edge{{From: "A", To: "B", Kind: diagram.EdgeData}},
	)
	require.NoError(t, err)
	return g
}

func TestRendererPrintsStep(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, testGraph(t))

	st := controls.State{Playback: playback.Snapshot{
		Status:      playback.StatusRunning,
		RunID:       "run-1",
		StepIndex:   1,
		StepCount:   3,
		ActiveNode:  "B",
		Highlight:   []string{"A"},
		Description: "B receives from A",
		ActiveEdges: []string{"A->B:data"},
	}}
	r.Render(st)
	r.Render(st)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "[2/3]"), "repeated state is rendered once")
	assert.Contains(t, out, "[2/3] B + Alpha")
	assert.Contains(t, out, "B receives from A")
	assert.Contains(t, out, "A->B:data")
}

func TestRendererStatuses(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, testGraph(t))

	r.Render(controls.State{Playback: playback.Snapshot{Status: playback.StatusIdle, StepIndex: -1}})
	r.Render(controls.State{Playback: playback.Snapshot{Status: playback.StatusPaused, RunID: "r", StepIndex: 0, StepCount: 2}})
	r.Render(controls.State{Playback: playback.Snapshot{Status: playback.StatusCompleted, RunID: "r", ScenarioID: "abc", StepIndex: 1}})

	out := buf.String()
	assert.Contains(t, out, "idle")
	assert.Contains(t, out, "paused at step 1/2")
	assert.Contains(t, out, "completed abc")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"ID", "STEPS"}, [][]string{{"long-scenario", "4"}, {"x", "12"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  ID             STEPS", lines[0])
	assert.Equal(t, "  long-scenario  4", lines[2])
	assert.Equal(t, "  x              12", lines[3])

	buf.Reset()
	Table(&buf, []string{"ID"}, nil)
	assert.Empty(t, buf.String())
}
