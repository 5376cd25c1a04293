// Package repository provides the persistence collaborator behind the
// Store interface.  Sentinel values defined here are shared across the
// entity files so that higher layers such as handlers can distinguish
// failure scenarios: ErrConflict signals an operation blocked by
// current state (for example kicking a facilitator or revealing with no
// active round), while ErrValidation signals malformed input.
package repository

import "errors"

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state.  Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrValidation is returned for malformed input such as an estimate
// outside the allowed scale or a reorder that is not a permutation of
// the queue.  Handlers should translate this into an HTTP 400 response.
var ErrValidation = errors.New("validation")
