package store

import "errors"

var (
	// ErrPersonNotFound indicates the person does not exist.
	ErrPersonNotFound = errors.New("person not found")

	// ErrUnsupportedDriver indicates the configured database driver is unknown.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
