package ui

import (
	"context"
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/dustin/go-humanize"

	"github.com/ytget/stream-merger/internal/delivery"
	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/platform"
)

// ErrSaveCancelled is returned when the user dismisses the save dialog
var ErrSaveCancelled = errors.New("save cancelled by user")

// DialogSaver asks the user where to store each merged file.
type DialogSaver struct {
	window     fyne.Window
	defaultDir string
	reveal     bool
	logger     logger.Logger

	// LastPath is the path of the most recently saved file
	LastPath string
}

var _ delivery.Saver = (*DialogSaver)(nil)

// NewDialogSaver creates a saver that opens a save dialog on window,
// starting in defaultDir.
func NewDialogSaver(window fyne.Window, defaultDir string, reveal bool, log logger.Logger) *DialogSaver {
	if log == nil {
		log = logger.Nop()
	}
	return &DialogSaver{window: window, defaultDir: defaultDir, reveal: reveal, logger: log}
}

type saveResult struct {
	path string
	err  error
}

// SaveAs implements delivery.Saver. It must not be called from the UI
// goroutine since it blocks until the dialog is answered.
func (s *DialogSaver) SaveAs(ctx context.Context, data []byte, filename, mimeType string) error {
	done := make(chan saveResult, 1)

	var d *dialog.FileDialog
	fyne.Do(func() {
		d = dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			done <- s.write(w, err, data)
		}, s.window)
		d.SetFileName(platform.SanitizeFileName(filename))
		d.SetFilter(storage.NewExtensionFileFilter([]string{".mp4"}))
		if s.defaultDir != "" {
			if lister, err := storage.ListerForURI(storage.NewFileURI(s.defaultDir)); err == nil {
				d.SetLocation(lister)
			}
		}
		d.Resize(fyne.NewSize(SaveDialogWidth, SaveDialogHeight))
		d.Show()
	})

	select {
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		s.LastPath = res.path
		s.logger.Infof("Saved %s (%s, %s)", res.path, mimeType, humanize.Bytes(uint64(len(data))))
		if s.reveal {
			if err := platform.OpenFileInManager(res.path); err != nil {
				s.logger.Warnf("Failed to reveal %s: %v", res.path, err)
			}
		}
		return nil
	case <-ctx.Done():
		fyne.Do(func() {
			if d != nil {
				d.Hide()
			}
		})
		return ctx.Err()
	}
}

func (s *DialogSaver) write(w fyne.URIWriteCloser, err error, data []byte) saveResult {
	if err != nil {
		return saveResult{err: err}
	}
	if w == nil {
		return saveResult{err: ErrSaveCancelled}
	}
	defer w.Close()

	if _, err := w.Write(data); err != nil {
		return saveResult{err: fmt.Errorf("failed to write %s: %w", w.URI().Name(), err)}
	}
	return saveResult{path: w.URI().Path()}
}
