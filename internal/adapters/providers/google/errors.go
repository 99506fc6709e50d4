package google

import "errors"

var (
	// ErrTransport marks network and decode failures talking to the
	// Places API.
	ErrTransport = errors.New("google: transport failure")

	// ErrStatus marks a response the API answered but rejected (non-2xx
	// HTTP or a non-OK Places status field).
	ErrStatus = errors.New("google: provider rejected request")
)
