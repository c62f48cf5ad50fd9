package service

import "errors"

// Lookup and validation errors returned by the service.
var (
	ErrUnknownTeam     = errors.New("unknown team")
	ErrUnknownEmployee = errors.New("unknown employee")
	ErrInvalidStatus   = errors.New("invalid status filter")
	ErrUnknownAction   = errors.New("unknown session action")
	ErrNotStarted      = errors.New("service not started")
)
