package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in a store or registry.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoSelection is returned when an operation needs a selected annotation and there is none.
var ErrNoSelection = errors.New("no annotation selected")

// ErrValidationFailed is returned when the selected annotation reports itself invalid.
// Callers are expected to stay silent about it: no notification, no flag change.
var ErrValidationFailed = errors.New("annotation failed validation")

// ErrUnknownCommand is returned when a command name is not part of the binding table.
var ErrUnknownCommand = errors.New("unknown command")

// ErrInvalidFlag is returned when a recognized flag receives a non-boolean value.
var ErrInvalidFlag = errors.New("invalid flag value")

// ErrTaskNotFound is returned by task sources when a task document does not exist.
var ErrTaskNotFound = errors.New("task not found")
