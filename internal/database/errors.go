package database

import "errors"

// ErrProviderClosed is returned by Get after Close.
var ErrProviderClosed = errors.New("database provider closed")
