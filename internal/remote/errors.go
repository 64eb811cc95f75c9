package remote

import "errors"

// Common errors returned by content API operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, remote.ErrConflict) {
//	    // Another writer updated the file between our GET and PUT.
//	}
var (
	// ErrNotFound is returned when the requested path does not exist on
	// the remote store.
	ErrNotFound = errors.New("remote path not found")

	// ErrAuth is returned when the content API rejects the credential.
	ErrAuth = errors.New("remote credential rejected")

	// ErrConflict is returned when a conditional write is rejected
	// because the supplied revision no longer matches (stale write).
	ErrConflict = errors.New("remote revision mismatch")
)
