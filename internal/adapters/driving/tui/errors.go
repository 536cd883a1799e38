package tui

import "errors"

// ErrMissingGraphReader is returned when the graph reader is not provided.
var ErrMissingGraphReader = errors.New("tui: graph reader is required")
