// Package sentinel holds the sentinel errors stores return for factual
// resource states. Services translate these into coded domain errors; raw
// sentinel errors never reach a handler.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
