package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrRegistrationClosed = errors.New("registration closed")
	ErrInvalidPatch       = errors.New("invalid patch")
)
