package download

// Package download implements the chunked streaming fetch used by a merge run.
// It reads a response body incrementally, accounts for received bytes and
// reports weighted progress to a caller-supplied sink.
