package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/platform"
)

// MIMETypeMP4 is the MIME type of merged output
const MIMETypeMP4 = "video/mp4"

// Saver hands a finished file to the user.
type Saver interface {
	SaveAs(ctx context.Context, data []byte, filename, mimeType string) error
}

// DirSaver writes files into a directory without overwriting existing ones.
type DirSaver struct {
	dir    string
	reveal bool
	logger logger.Logger

	// LastPath is the path of the most recently saved file
	LastPath string
}

// NewDirSaver creates a saver for dir. With reveal set, saved files are
// highlighted in the system file manager.
func NewDirSaver(dir string, reveal bool, log logger.Logger) *DirSaver {
	if log == nil {
		log = logger.Nop()
	}
	return &DirSaver{dir: dir, reveal: reveal, logger: log}
}

// SaveAs implements Saver
func (s *DirSaver) SaveAs(ctx context.Context, data []byte, filename, mimeType string) error {
	if err := platform.CreateDirectoryIfNotExists(s.dir); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	target, err := platform.UniquePath(s.dir, platform.SanitizeFileName(filename))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(target), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), platform.DefaultFilePermissions); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(target), err)
	}

	s.LastPath = target
	s.logger.Infof("Saved %s (%s, %s)", target, mimeType, humanize.Bytes(uint64(len(data))))

	if s.reveal {
		if err := platform.OpenFileInManager(target); err != nil {
			s.logger.Warnf("Failed to reveal %s: %v", target, err)
		}
	}
	return nil
}
