package engine

import "context"

// Virtual file names used inside the engine workspace
const (
	VideoFile  = "input_video"
	AudioFile  = "input_audio"
	OutputFile = "output"
)

// EventKind distinguishes engine events
type EventKind int

const (
	// EventLog carries one line of engine output
	EventLog EventKind = iota
	// EventProgress carries the engine's local completion in [0,1]
	EventProgress
)

// Event is emitted by an engine while a command runs
type Event struct {
	Kind     EventKind
	Message  string
	Progress float64
}

// Engine is a media engine with a private file namespace. Files written
// with WriteFile are visible to Exec by name; outputs are read back with
// ReadFile.
type Engine interface {
	IsLoaded() bool
	Load(ctx context.Context) error
	WriteFile(ctx context.Context, name string, data []byte) error
	Exec(ctx context.Context, args []string) (int, error)
	ReadFile(ctx context.Context, name string) ([]byte, error)
	DeleteFile(ctx context.Context, name string) error

	// Subscribe registers fn for log and progress events. The returned
	// function removes the registration.
	Subscribe(fn func(Event)) (cancel func())
}
