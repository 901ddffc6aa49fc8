package database

import "errors"

// ErrNotFound covers both a record that does not exist and a record the
// caller does not own. Project reads are always scoped by user_id, so the
// absence of a row is the only signal either way.
var ErrNotFound = errors.New("record not found")

// ErrNoFields is returned when an update patch carries no fields.
var ErrNoFields = errors.New("no fields to update")
