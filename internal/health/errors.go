package health

import "errors"

// ErrMalformedMessage is returned when a payload cannot be parsed or fails
// shape validation for its topic.
var ErrMalformedMessage = errors.New("health: malformed message")
