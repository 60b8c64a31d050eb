package identity

import "errors"

// ErrInvalidIdentifier is returned when a textual identifier is not a
// syntactically valid canonical UUID.
var ErrInvalidIdentifier = errors.New("invalid identifier")
