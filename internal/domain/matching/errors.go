package matching

import "errors"

// ErrObjectNotFound is returned by ObjectStorage implementations for missing keys.
var ErrObjectNotFound = errors.New("object not found")

// ErrSourceNotAllowed is returned by ResumeSource implementations when the
// requested database is outside the configured allowlist.
var ErrSourceNotAllowed = errors.New("resume source not allowed")
