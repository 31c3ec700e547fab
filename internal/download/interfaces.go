package download

import (
	"context"

	"github.com/ytget/stream-merger/internal/progress"
)

// Fetcher defines the interface for the chunked downloader.
type Fetcher interface {
	// Fetch downloads url in full, reporting progress for r to sink.
	Fetch(ctx context.Context, url, label string, r progress.WeightRange, sink progress.Sink) ([]byte, error)
}
