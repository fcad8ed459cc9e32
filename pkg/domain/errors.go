package domain

import "errors"

// ErrNotFound is returned by fetch collaborators when an article (or its markup,
// preview, or a random pick) structurally does not exist. It is never a transient failure.
var ErrNotFound = errors.New("article not found")

// ErrNotRunning is returned when a step or cancel is requested on a journey that is not running.
var ErrNotRunning = errors.New("journey is not running")

// ErrStepPending is returned when a step is requested while a previous one is still in flight.
var ErrStepPending = errors.New("a step is already pending")

// ErrInvalidTransition is returned when an operation is not allowed from the current status.
var ErrInvalidTransition = errors.New("invalid journey transition")

// ErrJourneyNotFound is returned when a journey ID cannot be found in the session manager.
var ErrJourneyNotFound = errors.New("journey not found")

// ErrCacheMiss is returned by caches when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")
