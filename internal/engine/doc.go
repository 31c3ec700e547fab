package engine

// Package engine defines the media engine consumed by a merge run: a private
// file namespace plus an exec call that reports log and progress events.
// FFmpeg implements it on top of a native ffmpeg binary; Manager owns the
// single shared instance and loads it on first use.
