package download

import "errors"

// ErrSpawn is returned when the download agent cannot be started.
var ErrSpawn = errors.New("download agent could not be started")
