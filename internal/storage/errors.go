// Package storage defines the claim and swap journal stores and the errors
// every backend maps its driver failures to.
package storage

import "errors"

var (
	// ErrNotFound means no journal entry has the requested attempt id.
	ErrNotFound = errors.New("attempt not found")

	// ErrDuplicateKey means the attempt id was already journaled. Entries
	// are written once, on the terminal stage.
	ErrDuplicateKey = errors.New("attempt already journaled")

	// ErrInvalidInput rejects an empty pool key or an attempt without id.
	ErrInvalidInput = errors.New("invalid input")
)
