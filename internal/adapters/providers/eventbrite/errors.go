package eventbrite

import "errors"

var (
	// ErrTransport marks network and decode failures talking to the
	// Eventbrite API.
	ErrTransport = errors.New("eventbrite: transport failure")

	// ErrStatus marks a response the API answered but rejected.
	ErrStatus = errors.New("eventbrite: provider rejected request")
)
