package repositories

import "errors"

// ErrNotFound is returned when a catalog lookup has no match
var ErrNotFound = errors.New("not found")
