package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/progress"
)

// Download constants
const (
	DefaultChunkSize = 64 * 1024
	UserAgentHeader  = "User-Agent"
)

// DownloadError reports a failed fetch: either a non-2xx status from the
// relay or a transport failure (Err set, StatusCode zero).
type DownloadError struct {
	Label      string
	StatusCode int
	Status     string
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch %s: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: %s", e.Label, e.Status)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Downloader streams HTTP bodies chunk by chunk
type Downloader struct {
	client    *http.Client
	logger    logger.Logger
	userAgent string
	chunkSize int
}

// NewDownloader creates a new downloader. A nil client uses
// http.DefaultClient, whose transport defaults bound every read.
func NewDownloader(client *http.Client, log logger.Logger, userAgent string) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Downloader{
		client:    client,
		logger:    log,
		userAgent: userAgent,
		chunkSize: DefaultChunkSize,
	}
}

// SetChunkSize sets the read buffer size; values below 1 are ignored
func (d *Downloader) SetChunkSize(size int) {
	if size > 0 {
		d.chunkSize = size
	}
}

// Fetch downloads url and returns the body as one contiguous buffer.
//
// While the total length is known each chunk emits progress at
// progress.Map(loaded/total, r). When the stream ends an event at exactly
// r.End is emitted regardless, so a server that omits Content-Length still
// completes its range.
func (d *Downloader) Fetch(ctx context.Context, url, label string, r progress.WeightRange, sink progress.Sink) ([]byte, error) {
	if sink == nil {
		sink = progress.Discard
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DownloadError{Label: label, Err: err}
	}
	if d.userAgent != "" {
		req.Header.Set(UserAgentHeader, d.userAgent)
	}

	d.logger.Debugf("Fetching %s from %s", label, url)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &DownloadError{Label: label, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{Label: label, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	total := resp.ContentLength
	var loaded int64
	var chunks [][]byte

	buf := make([]byte, d.chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			chunks = append(chunks, chunk)
			loaded += int64(n)

			if fraction, ok := progress.Fraction(loaded, total); ok {
				sink.Progress(progress.Map(fraction, r))
			}
		}

		if readErr == nil {
			continue
		}
		if readErr == io.EOF {
			break
		}
		if errors.Is(readErr, io.ErrUnexpectedEOF) {
			d.logger.Warnf("%s stream ended early: received %d of %d bytes", label, loaded, total)
			break
		}
		return nil, &DownloadError{Label: label, Err: fmt.Errorf("failed while reading body: %w", readErr)}
	}

	sink.Progress(r.End)

	data := make([]byte, loaded)
	pos := 0
	for _, chunk := range chunks {
		pos += copy(data[pos:], chunk)
	}

	d.logger.Infof("%s downloaded: %s", label, humanize.Bytes(uint64(loaded)))
	return data, nil
}
