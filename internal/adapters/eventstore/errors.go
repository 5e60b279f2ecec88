package eventstore

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrQuery = errors.New("event store query failed")
)
