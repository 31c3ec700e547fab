package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconClose    = "×"
	IconError    = "❌"
	IconDone     = "✅"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	ProgressLabelFormat = "%.1f%%"
)

// Layout sizing
const (
	SettingsWidth    float32 = 520
	SettingsHeight   float32 = 460
	SaveDialogWidth  float32 = 700
	SaveDialogHeight float32 = 480
)

// Log view
const (
	MaxLogLines = 500
)

// Toast notification sizing and behavior
const (
	ToastWidth    float32 = 300
	ToastHeight   float32 = 120
	ToastMargin   float32 = 20
	ToastAutoHide         = 5 * time.Second
)

// Debounce durations
const (
	UIUpdateDebounce = 100 * time.Millisecond
)
