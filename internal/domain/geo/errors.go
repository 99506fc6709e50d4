package geo

import "errors"

// Sentinel kinds for geometry parsing.
var (
	ErrBadPoint = errors.New("malformed point geometry")
)
