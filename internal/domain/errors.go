package domain

import "errors"

var (
	ErrUnknownScope    = errors.New("unknown record scope")
	ErrUnknownWindow   = errors.New("unknown stats window")
	ErrMemberNotFound  = errors.New("member not found in any voice room")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
