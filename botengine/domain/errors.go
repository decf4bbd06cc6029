package domain

import "errors"

var (
	// ErrNoResponseNotPossible is returned when the nluToNlu stage answers
	// with NoResponse; that stage has to produce a decision.
	ErrNoResponseNotPossible = errors.New("NoResponseNotPossible: the nluToNlu interceptor must not return NoResponse")

	ErrUnsupportedPayload     = errors.New("unsupported custom payload")
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	ErrUnknownAgent           = errors.New("unknown agent")
)
