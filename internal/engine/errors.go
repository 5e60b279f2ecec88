package engine

import "errors"

// Sentinel kinds for scoring engine errors. Missing or short history is
// never an error; it degrades to documented fallback signals. Only store
// connectivity failures and unknown identifiers surface to callers.
var (
	ErrDataUnavailable     = errors.New("event data unavailable")
	ErrUnknownSubject      = errors.New("unknown subject")
	ErrUnknownConversation = errors.New("unknown conversation")
)
