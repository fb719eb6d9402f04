package contract

import "errors"

var (
	ErrModelInvoke   = errors.New("model invoke failed")
	ErrAgentNotFound = errors.New("agent is not registered")
	ErrValidation    = errors.New("validation failed")
)
