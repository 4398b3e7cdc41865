package diagram

import "github.com/cockroachdb/errors"

// Configuration errors. Callers match them with errors.Is.
var (
	ErrInvalidNode        = errors.New("invalid node")
	ErrDuplicateNode      = errors.New("duplicate node id")
	ErrUnknownNode        = errors.New("unknown node")
	ErrUnknownEdgeKind    = errors.New("unknown edge kind")
	ErrDuplicateEdge      = errors.New("duplicate edge id")
	ErrEmptyScenario      = errors.New("scenario has no steps")
	ErrInvalidDuration    = errors.New("step duration must be positive")
	ErrDuplicateScenario  = errors.New("duplicate scenario id")
	ErrUnsupportedVersion = errors.New("unsupported catalog version")
)
