package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid epic reference")
	ErrInvalidTask      = errors.New("invalid task")
	ErrPersistence      = errors.New("persistence failure")
	ErrMalformedRecord  = errors.New("malformed record")
)
