package playback

// Status is the lifecycle state of a playback.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Snapshot is a read-only copy of the playback state handed to observers.
// StepIndex and ActiveEdges always describe the same step.
type Snapshot struct {
	Status      Status   `json:"status"`
	RunID       string   `json:"run_id,omitempty"`
	ScenarioID  string   `json:"scenario_id,omitempty"`
	StepIndex   int      `json:"step_index"`
	StepCount   int      `json:"step_count"`
	ActiveNode  string   `json:"active_node,omitempty"`
	Highlight   []string `json:"highlight,omitempty"`
	Description string   `json:"description,omitempty"`
	ActiveEdges []string `json:"active_edges"`
	Speed       float64  `json:"speed"`
	// RemainingMS is the wall-clock time left in the current step at the
	// current speed.
	RemainingMS int64 `json:"remaining_ms"`
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)
