package domain

import "errors"

// ErrCircuitOpen is the fast-fail rejection returned when a breaker is open.
// It is not an operation failure: it is never retried or dead-lettered.
var ErrCircuitOpen = errors.New("circuit breaker is OPEN")
