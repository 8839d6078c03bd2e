package services

import "errors"

var (
	ErrTooFewParticipants = errors.New("a debate needs at least two participants")
	ErrDuplicateParticipant = errors.New("a persona may appear only once per thread")
)
