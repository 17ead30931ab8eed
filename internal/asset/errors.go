package asset

import "errors"

// ErrNotFound indicates no file with a recognized video extension was found.
var ErrNotFound = errors.New("no video file found")
