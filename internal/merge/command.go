package merge

import (
	"strings"

	"github.com/ytget/stream-merger/internal/engine"
)

// Container settings for merged output
const (
	OutputExtension = ".mp4"
	OutputFormat    = "mp4"
	FastStartFlag   = "+faststart"
	DefaultBaseName = "output"
)

// RemuxArgs builds the stream-copy command. Streams are never re-encoded.
func RemuxArgs(withAudio bool) []string {
	args := []string{"-i", engine.VideoFile}
	if withAudio {
		args = append(args, "-i", engine.AudioFile)
	}
	return append(args,
		"-c", "copy",
		"-movflags", FastStartFlag,
		"-f", OutputFormat,
		engine.OutputFile,
	)
}

// EnsureExtension appends ext to name unless it already ends with it
// (case-insensitively). A blank name becomes DefaultBaseName+ext.
func EnsureExtension(name, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultBaseName + ext
	}
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		return name
	}
	return name + ext
}
