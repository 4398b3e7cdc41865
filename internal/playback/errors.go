package playback

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidScenario marks a Start refused because the scenario is empty
	// or references nodes missing from the graph.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrInvalidArgument is returned for non-positive or non-finite speeds.
	ErrInvalidArgument = errors.New("invalid argument")
)
