package splitter

import "errors"

var (
	// ErrNotEnoughSources indicates fewer source URLs than visible tiles.
	ErrNotEnoughSources = errors.New("splitter: not enough source URLs for division")

	// ErrNoFactory indicates a missing player factory.
	ErrNoFactory = errors.New("splitter: player factory is required")
)
