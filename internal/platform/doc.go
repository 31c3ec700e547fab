package platform

// Package platform contains OS/platform integration: filesystem helpers,
// collision-free output naming, and OS open/reveal of delivered files.
