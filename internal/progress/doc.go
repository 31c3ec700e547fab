package progress

// Package progress maps the local completion of each stage of a merge run
// onto one global percentage and defines the Sink that observers implement.
