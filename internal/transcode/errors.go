package transcode

import "errors"

var (
	// ErrSpawn is returned when the transcoder cannot be started.
	ErrSpawn = errors.New("transcoder could not be started")

	// ErrStream is returned when reading the transcoder's output fails.
	ErrStream = errors.New("transcoder output read failed")

	// ErrExit is returned when the transcoder exits with a failure status.
	ErrExit = errors.New("transcoder exited with error")

	// ErrEmptyOutput is returned when the transcoder leaves no usable output file.
	ErrEmptyOutput = errors.New("transcoder produced no output")
)
