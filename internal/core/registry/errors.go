package registry

import "errors"

var (
	ErrAlreadyRegistered   = errors.New("type already registered")
	ErrNotRegistered       = errors.New("type not registered")
	ErrInvalidRegistration = errors.New("invalid registration")
)
