package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStorageIO is returned when the durable store cannot be read or written.
	ErrStorageIO = errors.New("storage io failure")
)
