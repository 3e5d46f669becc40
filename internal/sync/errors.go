package sync

import "errors"

// Sentinel errors returned by the engine. Callers check them with errors.Is;
// the wrapped error carries the path and the underlying cause.

// ErrDirectoryExists is returned by Create when the target directory is already present.
var ErrDirectoryExists = errors.New("directory already exists")

// ErrDirectoryNotFound is returned by Update when the directory is missing or is not a directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// ErrIO is returned when a create, rename or delete fails part-way through a
// run. Operations applied before the failure are not rolled back.
var ErrIO = errors.New("filesystem operation failed")
