package database

import "errors"

// ErrNotConfigured is returned by Open when no database name is set.
var ErrNotConfigured = errors.New("database not configured")
