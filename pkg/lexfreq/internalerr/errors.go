package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrDecode        = errors.New("document decode failed")
	ErrEmptyElement  = errors.New("element has no text")
	ErrNoBody        = errors.New("document has no body section")
	ErrSerialization = errors.New("serialization failed")
	ErrCorpusRoot    = errors.New("corpus root unreadable")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrTimeout       = errors.New("operation timed out")
)
