package pipeline

import (
	"errors"
	"fmt"

	"github.com/vmunix/magnetmux/internal/asset"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageStart     Stage = "start"
	StageDownload  Stage = "download"
	StageLocate    Stage = "locate"
	StageTranscode Stage = "transcode"
)

// StageError is the single error type returned by Acquire. The underlying
// cause stays reachable through errors.Is / errors.As.
type StageError struct {
	Stage     Stage
	SessionID string
	Err       error
}

func (e *StageError) Error() string {
	switch e.Stage {
	case StageDownload:
		return fmt.Sprintf("download failed: %v", e.Err)
	case StageLocate:
		if errors.Is(e.Err, asset.ErrNotFound) {
			return fmt.Sprintf("no video file found in the torrent: %v", e.Err)
		}
		return fmt.Sprintf("locating video failed: %v", e.Err)
	case StageTranscode:
		return fmt.Sprintf("conversion failed: %v", e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage of an Acquire error.
func StageOf(err error) (Stage, bool) {
	var serr *StageError
	if errors.As(err, &serr) {
		return serr.Stage, true
	}
	return "", false
}

// IsDownloadError reports whether err came from the download stage.
func IsDownloadError(err error) bool {
	s, ok := StageOf(err)
	return ok && s == StageDownload
}

// IsAssetNotFound reports whether the download finished without a video file.
func IsAssetNotFound(err error) bool {
	return errors.Is(err, asset.ErrNotFound)
}

// IsTranscodeError reports whether err came from the transcode stage.
func IsTranscodeError(err error) bool {
	s, ok := StageOf(err)
	return ok && s == StageTranscode
}
