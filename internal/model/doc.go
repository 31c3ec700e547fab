package model

// Package model defines domain data structures shared across the app: the
// media source of a run, the per-run task record and its state machine.
// Structures are designed for direct binding in the UI and explicit state
// transitions.
