// internal/events/pipeline.go
package events

import "github.com/vmunix/magnetmux/pkg/release"

// EntitySession is the only entity type the pipeline emits events for.
const EntitySession = "session"

// Event type constants
const (
	EventSessionCreated      = "session.created"
	EventDownloadOutput      = "download.output"
	EventDownloadFinished    = "download.finished"
	EventAssetLocated        = "asset.located"
	EventTranscodeStarted    = "transcode.started"
	EventTranscodeProgressed = "transcode.progressed"
	EventTranscodeSkipped    = "transcode.skipped"
	EventSessionCompleted    = "session.completed"
	EventSessionFailed       = "session.failed"
)

// SessionCreated is emitted when an acquisition begins.
type SessionCreated struct {
	BaseEvent
	Locator string `json:"locator"`
	Dir     string `json:"dir"`
}

// DownloadOutput is emitted for each classified line of download agent output.
type DownloadOutput struct {
	BaseEvent
	Kind string `json:"kind"` // "status", "piece" or "percent"
	Line string `json:"line"`
}

// DownloadFinished is emitted when the download agent has exited.
type DownloadFinished struct {
	BaseEvent
	Dir string `json:"dir"`
}

// AssetLocated is emitted when a video file is found in the download.
type AssetLocated struct {
	BaseEvent
	Path      string       `json:"path"`
	Container string       `json:"container"`
	Release   release.Info `json:"release"` // parsed from the file name
}

// TranscodeStarted is emitted before the asset is converted.
type TranscodeStarted struct {
	BaseEvent
	SourcePath string `json:"source_path"`
}

// TranscodeProgressed is emitted for each throttled progress report.
type TranscodeProgressed struct {
	BaseEvent
	Percent float64 `json:"percent"` // 0.0 - 100.0
}

// TranscodeSkipped is emitted when the asset is already in the canonical container.
type TranscodeSkipped struct {
	BaseEvent
	Path string `json:"path"`
}

// SessionCompleted is emitted with the final canonical path.
type SessionCompleted struct {
	BaseEvent
	Path       string `json:"path"`
	Transcoded bool   `json:"transcoded"`
}

// SessionFailed is emitted when any stage fails.
type SessionFailed struct {
	BaseEvent
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
