package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingVideo is returned for a source without a video URL
var ErrMissingVideo = errors.New("video URL is required")

// MediaSource is the pair of remote streams to merge. Audio is optional.
type MediaSource struct {
	VideoURL string
	AudioURL string
}

// HasAudio reports whether an audio stream is present
func (ms MediaSource) HasAudio() bool {
	return strings.TrimSpace(ms.AudioURL) != ""
}

// Validate rejects sources without a video URL, including audio-only ones
func (ms MediaSource) Validate() error {
	if strings.TrimSpace(ms.VideoURL) == "" {
		return ErrMissingVideo
	}
	return nil
}

// MergeTask represents a single download-and-merge run
type MergeTask struct {
	ID         string
	Source     MediaSource
	FileName   string    // delivered file name, extension included
	State      RunState
	Percent    float64   // 0 to 100
	LastError  string    // last error message if any
	OutputSize int64     // size of the merged file in bytes
	StartedAt  time.Time // when the run started
	FinishedAt time.Time // when the run finished
}

// Elapsed returns the run duration, up to now for unfinished runs
func (mt *MergeTask) Elapsed() time.Duration {
	if mt.StartedAt.IsZero() {
		return 0
	}
	if mt.FinishedAt.IsZero() {
		return time.Since(mt.StartedAt)
	}
	return mt.FinishedAt.Sub(mt.StartedAt)
}

// GetElapsedString returns the duration formatted as mm:ss or hh:mm:ss
func (mt *MergeTask) GetElapsedString() string {
	secs := int(mt.Elapsed().Seconds())
	if secs <= 0 {
		return "—"
	}

	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GetDisplayTitle returns the file name without extension, falling back to
// the video URL
func (mt *MergeTask) GetDisplayTitle() string {
	if mt.FileName != "" {
		name := mt.FileName
		if idx := strings.LastIndex(name, "."); idx > 0 {
			name = name[:idx]
		}
		return name
	}
	return mt.Source.VideoURL
}
