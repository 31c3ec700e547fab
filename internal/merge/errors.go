package merge

import (
	"errors"
	"fmt"

	"github.com/ytget/stream-merger/internal/download"
	"github.com/ytget/stream-merger/internal/model"
)

// EngineLoadError means the media engine could not be initialised. The run
// aborts before any download.
type EngineLoadError struct {
	Err error
}

func (e *EngineLoadError) Error() string {
	return fmt.Sprintf("media engine load failed: %v", e.Err)
}

func (e *EngineLoadError) Unwrap() error { return e.Err }

// CorruptTransferError means a stream was smaller than MinMediaSize, which
// signals the relay returned something other than media.
type CorruptTransferError struct {
	Label string
	Size  int
}

func (e *CorruptTransferError) Error() string {
	return fmt.Sprintf("%s file too small (%d bytes). Proxy failed.", e.Label, e.Size)
}

// RemuxError means the engine's merge command did not succeed. Code is the
// engine exit code, or -1 when the command could not run.
type RemuxError struct {
	Code int
	Err  error
}

func (e *RemuxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("merge failed: %v", e.Err)
	}
	return fmt.Sprintf("merge failed with exit code: %d", e.Code)
}

func (e *RemuxError) Unwrap() error { return e.Err }

// DeliveryError means the save step failed after a successful merge.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to save file: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ErrorKind is the outcome of a run
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidSource
	KindEngineLoad
	KindDownload
	KindCorruptTransfer
	KindRemux
	KindDelivery
	KindUnknown
)

var kindNames = map[ErrorKind]string{
	KindNone:            "ok",
	KindInvalidSource:   "invalid_source",
	KindEngineLoad:      "engine_load",
	KindDownload:        "download",
	KindCorruptTransfer: "corrupt_transfer",
	KindRemux:           "remux",
	KindDelivery:        "delivery",
	KindUnknown:         "unknown",
}

// String returns a stable name for the kind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Kind classifies an error returned by DownloadAndMerge.
func Kind(err error) ErrorKind {
	var (
		loadErr     *EngineLoadError
		downloadErr *download.DownloadError
		corruptErr  *CorruptTransferError
		remuxErr    *RemuxError
		deliveryErr *DeliveryError
	)

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, model.ErrMissingVideo):
		return KindInvalidSource
	case errors.As(err, &loadErr):
		return KindEngineLoad
	case errors.As(err, &downloadErr):
		return KindDownload
	case errors.As(err, &corruptErr):
		return KindCorruptTransfer
	case errors.As(err, &remuxErr):
		return KindRemux
	case errors.As(err, &deliveryErr):
		return KindDelivery
	default:
		return KindUnknown
	}
}
