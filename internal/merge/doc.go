package merge

// Package merge sequences a download-and-merge run: engine load, video and
// audio fetch through the relay, stream-copy remux, output extraction,
// delivery and teardown of the engine files. Each stage owns a slice of the
// global progress scale and every failure is returned as a typed error that
// Kind classifies.
