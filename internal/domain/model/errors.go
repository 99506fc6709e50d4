package model

import "errors"

// Sentinel kinds for entity validation failures.
var (
	ErrInvalidEntity      = errors.New("invalid entity")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
