// Package common defines constants and sentinel errors shared by the client
// and server. Callers should match errors with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Local durable state is missing, unreadable or corrupt. The client keeps
	// running with whatever it has in memory.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// The remote backend is not configured or cannot be reached.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// A push was rejected or failed in transit. Local data is kept.
	ErrSyncWriteFailed = errors.New("sync write failed")

	// A remote document lacks data/timestamp or carries an unparseable timestamp.
	ErrSyncReadMalformed = errors.New("sync read malformed")

	// An uploaded file is not a parseable record mapping.
	ErrImportMalformed = errors.New("import malformed")

	// Validation errors.
	ErrInvalidSyncID = errors.New("invalid sync id")
)
