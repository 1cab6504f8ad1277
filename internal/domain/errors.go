package domain

import "errors"

// Error kinds shared across the pipeline. Packages wrap these with context and
// callers classify failures with errors.Is.
var (
	// ErrTransport is returned when the feed, the ledger RPC or a relay cannot be reached.
	ErrTransport = errors.New("transport error")

	// ErrDecode is returned for malformed transaction metadata or account payloads.
	ErrDecode = errors.New("decode error")

	// ErrNotFound is returned when a queried account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBuild is returned when a transaction cannot be compiled or signed.
	ErrBuild = errors.New("build error")

	// ErrDispatch is returned when a submission backend rejects a transaction.
	ErrDispatch = errors.New("dispatch error")
)
