// Package repository provides the data access layer for the catalog.
package repository

import "errors"

var (
	// ErrNotFound is returned when no row exists for the requested id.
	ErrNotFound = errors.New("not found")

	// ErrVersionMismatch is returned by Update when the row version in
	// storage no longer matches the version the caller read.
	ErrVersionMismatch = errors.New("version mismatch")
)
