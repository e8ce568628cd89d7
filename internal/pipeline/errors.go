package pipeline

import "errors"

// Pipeline errors.
var (
	ErrEmptyInput    = errors.New("empty input")
	ErrInputTooLong  = errors.New("input too long (max 1000 characters)")
	ErrUnsafeCommand = errors.New("command contains unsafe characters")
	ErrOutOfRange    = errors.New("value out of range")
	ErrUpstream      = errors.New("draft source failed")

	// ErrUnresolvedTime never fails a parse. It is reported as a hint and
	// in Result.Warning.
	ErrUnresolvedTime = errors.New("no time expression found")
)
