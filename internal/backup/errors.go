// Package backup writes and restores archives of a Pagebound database.
//
// An archive is a zip of JSONL entity files plus a manifest. Only state that
// cannot be re-derived from records is authoritative; ratings, goal counts
// and challenge progress are carried along but recomputed after a restore.
package backup

import "errors"

var (
	// ErrInvalidManifest indicates the manifest is missing or malformed.
	ErrInvalidManifest = errors.New("invalid or missing manifest")

	// ErrVersionMismatch indicates the backup version is not supported.
	ErrVersionMismatch = errors.New("backup version not supported")

	// ErrBackupNotFound indicates the requested backup does not exist.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrStoreNotEmpty is returned when restoring into a database that
	// already holds books or readers.
	ErrStoreNotEmpty = errors.New("restore target is not empty")
)
