package framing

import "errors"

var (
	ErrShortFrame    = errors.New("frame shorter than the fields read from it")
	ErrFrameTooLarge = errors.New("frame exceeds its declared length")
	ErrUnknownLength = errors.New("frame identifier has no known length")
)
