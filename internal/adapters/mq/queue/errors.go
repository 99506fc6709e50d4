package queue

import "errors"

// ErrClosed reports enqueue attempts on a closed queue.
var ErrClosed = errors.New("queue closed")
