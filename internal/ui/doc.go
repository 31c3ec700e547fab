package ui

// Package ui contains the Fyne-based desktop user interface. It collects the
// stream URLs and output name, runs the merge in the background and renders
// progress, the run log and completion notifications. A DialogSaver lets the
// user pick the destination of each file. All UI strings are localized via
// Localization.
