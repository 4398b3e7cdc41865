package diagram

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Step is one unit of playback: an active node, optional highlighted
// collaborators and how long the step is shown at speed 1.
type Step struct {
	Active      string   `json:"active" yaml:"active"`
	Highlight   []string `json:"highlight,omitempty" yaml:"highlight"`
	DurationMS  int      `json:"duration_ms" yaml:"duration_ms"`
	Description string   `json:"description,omitempty" yaml:"description"`
}

// Duration returns the nominal step duration.
func (s Step) Duration() time.Duration {
	return time.Duration(s.DurationMS) * time.Millisecond
}

// Scenario is an ordered, named walkthrough. Step order is playback order.
type Scenario struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title,omitempty" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

// TotalDuration returns the sum of all step durations at speed 1.
func (s *Scenario) TotalDuration() time.Duration {
	var total time.Duration
	for _, st := range s.Steps {
		total += st.Duration()
	}
	return total
}

// ValidateScenario checks that s is non-empty, that every step has a
// positive duration and that every node it references exists in g.
func (g *Graph) ValidateScenario(s *Scenario) error {
	if s == nil || len(s.Steps) == 0 {
		return ErrEmptyScenario
	}
	for i, st := range s.Steps {
		if st.DurationMS <= 0 {
			return errors.Wrapf(ErrInvalidDuration, "scenario %q step %d: %dms", s.ID, i, st.DurationMS)
		}
		if !g.HasNode(st.Active) {
			return errors.Wrapf(ErrUnknownNode, "scenario %q step %d: active %q", s.ID, i, st.Active)
		}
		for _, h := range st.Highlight {
			if !g.HasNode(h) {
				return errors.Wrapf(ErrUnknownNode, "scenario %q step %d: highlight %q", s.ID, i, h)
			}
		}
	}
	return nil
}
