package models

import "errors"

// ErrDuplicate is returned when a record already exists under the target key.
// Callers treat it as a successful no-op.
var ErrDuplicate = errors.New("record already exists")

// ErrNotFound is returned when a keyed lookup has no match.
var ErrNotFound = errors.New("record not found")
