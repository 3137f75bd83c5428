package transcripts

import "errors"

var (
	ErrNotFound     = errors.New("transcript not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTooLarge     = errors.New("transcript exceeds upload limit")
	ErrUnsupported  = errors.New("transcript is not a text export")
	ErrEnqueue      = errors.New("could not schedule processing")
)
