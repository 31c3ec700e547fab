package merge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ytget/stream-merger/internal/delivery"
	"github.com/ytget/stream-merger/internal/download"
	"github.com/ytget/stream-merger/internal/engine"
	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/model"
	"github.com/ytget/stream-merger/internal/progress"
	"github.com/ytget/stream-merger/internal/relay"
)

// Run constants
const (
	// MinMediaSize is the smallest stream accepted as real media. Anything
	// shorter is assumed to be an error page from the relay.
	MinMediaSize = 1024

	VideoLabel  = "Video"
	AudioLabel  = "Audio"
	RunIDPrefix = "merge-"
)

// Orchestrator runs the download, remux and delivery stages of a merge.
type Orchestrator struct {
	engines  *engine.Manager
	relay    *relay.Builder
	fetcher  download.Fetcher
	saver    delivery.Saver
	logger   logger.Logger
	onUpdate func(*model.MergeTask) // callback for UI updates

	// runs share the engine's file names, so only one may be active
	runMu sync.Mutex
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(engines *engine.Manager, relay *relay.Builder, fetcher download.Fetcher, saver delivery.Saver, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		engines: engines,
		relay:   relay,
		fetcher: fetcher,
		saver:   saver,
		logger:  log,
	}
}

// SetUpdateCallback sets the callback function for task updates
func (o *Orchestrator) SetUpdateCallback(callback func(*model.MergeTask)) {
	o.onUpdate = callback
}

// SetSaver replaces the delivery target used by subsequent runs
func (o *Orchestrator) SetSaver(saver delivery.Saver) {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	o.saver = saver
}

// DownloadAndMerge fetches the video (and optional audio) stream through
// the relay, merges them into one MP4 and delivers it as fileName.
//
// Progress and user-facing log lines go to sink. The returned task is
// always non-nil and records the final state; the error, if any, can be
// classified with Kind.
func (o *Orchestrator) DownloadAndMerge(ctx context.Context, src model.MediaSource, fileName string, sink progress.Sink) (*model.MergeTask, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	r := &run{
		o:    o,
		ctx:  ctx,
		sink: progress.Monotonic(sink),
		task: &model.MergeTask{
			ID:        generateRunID(),
			Source:    src,
			FileName:  EnsureExtension(fileName, OutputExtension),
			State:     model.RunStateIdle,
			StartedAt: time.Now(),
		},
	}
	o.notifyUpdate(r.task)

	if err := src.Validate(); err != nil {
		return r.task, r.fail(err)
	}

	err := r.execute()
	r.teardown()
	if err != nil {
		return r.task, r.fail(err)
	}

	r.task.State = model.RunStateDone
	r.task.FinishedAt = time.Now()
	r.Log(fmt.Sprintf("All done! Saved %s", r.task.FileName))
	o.logger.Infof("Run %s finished in %s", r.task.ID, r.task.GetElapsedString())
	o.notifyUpdate(r.task)
	return r.task, nil
}

// run holds the state of a single DownloadAndMerge call. It is also the
// progress sink handed to the stages so that every event updates the task.
type run struct {
	o    *Orchestrator
	ctx  context.Context
	sink *progress.MonotonicSink
	task *model.MergeTask

	lastLine string
}

// Progress implements progress.Sink. A "Progress: N%" log line follows every
// change of the rendered percentage.
func (r *run) Progress(pct float64) {
	r.sink.Progress(pct)
	r.task.Percent = r.sink.Last()
	if line := progress.FormatPercent(r.task.Percent); line != r.lastLine {
		r.lastLine = line
		r.sink.Log(line)
	}
	r.o.notifyUpdate(r.task)
}

// Log implements progress.Sink
func (r *run) Log(msg string) {
	r.sink.Log(msg)
}

func (r *run) setState(state model.RunState) {
	r.task.State = state
	r.o.logger.Debugf("Run %s: %s", r.task.ID, state)
	r.o.notifyUpdate(r.task)
}

func (r *run) execute() error {
	src := r.task.Source

	r.setState(model.RunStateEngineLoading)
	r.Log("Loading FFmpeg core...")
	if err := r.o.engines.EnsureLoaded(r.ctx); err != nil {
		return &EngineLoadError{Err: err}
	}
	r.Log("FFmpeg loaded!")
	eng := r.o.engines.Engine()

	r.setState(model.RunStateDownloadingVideo)
	r.Log("Step 1/4: Downloading video stream...")
	if err := r.fetchInto(eng, VideoLabel, src.VideoURL, progress.VideoRange, engine.VideoFile); err != nil {
		return err
	}

	withAudio := src.HasAudio()
	if withAudio {
		r.setState(model.RunStateDownloadingAudio)
		r.Log("Step 2/4: Downloading audio stream...")
		if err := r.fetchInto(eng, AudioLabel, src.AudioURL, progress.AudioRange, engine.AudioFile); err != nil {
			return err
		}
	} else {
		r.Progress(progress.AudioRange.End)
	}

	r.setState(model.RunStateRemuxing)
	r.Log("Step 3/4: Merging streams...")
	if err := r.remux(eng, withAudio); err != nil {
		return err
	}

	r.setState(model.RunStateExtracting)
	r.Log("Step 4/4: Saving file...")
	data, err := eng.ReadFile(r.ctx, engine.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to read merged output: %w", err)
	}
	r.task.OutputSize = int64(len(data))

	// completion is reported before the save so the UI does not wait on it
	r.Progress(progress.Complete)

	r.setState(model.RunStateDelivering)
	if err := r.o.saver.SaveAs(r.ctx, data, r.task.FileName, delivery.MIMETypeMP4); err != nil {
		return &DeliveryError{Err: err}
	}
	r.o.logger.Infof("Delivered %s (%s)", r.task.FileName, humanize.Bytes(uint64(len(data))))
	return nil
}

// fetchInto downloads one stream through the relay and writes it into the
// engine under name.
func (r *run) fetchInto(eng engine.Engine, label, rawURL string, rng progress.WeightRange, name string) error {
	data, err := r.o.fetcher.Fetch(r.ctx, r.o.relay.Build(rawURL), label, rng, r)
	if err != nil {
		return err
	}
	if len(data) < MinMediaSize {
		return &CorruptTransferError{Label: label, Size: len(data)}
	}
	if err := eng.WriteFile(r.ctx, name, data); err != nil {
		return fmt.Errorf("failed to write %s into engine: %w", label, err)
	}
	return nil
}

func (r *run) remux(eng engine.Engine, withAudio bool) error {
	cancel := eng.Subscribe(func(e engine.Event) {
		switch e.Kind {
		case engine.EventProgress:
			r.Progress(progress.Map(progress.Clamp01(e.Progress), progress.RemuxRange))
		case engine.EventLog:
			r.Log("[FFmpeg] " + e.Message)
		}
	})
	defer cancel()

	code, err := eng.Exec(r.ctx, RemuxArgs(withAudio))
	if err != nil {
		return &RemuxError{Code: -1, Err: err}
	}
	if code != 0 {
		return &RemuxError{Code: code}
	}
	return nil
}

// teardown removes the engine files. Missing files are the common case, so
// every failure is discarded.
func (r *run) teardown() {
	eng := r.o.engines.Engine()
	ctx := context.WithoutCancel(r.ctx)
	for _, name := range []string{engine.VideoFile, engine.AudioFile, engine.OutputFile} {
		if err := eng.DeleteFile(ctx, name); err != nil {
			r.o.logger.Debugf("Run %s: delete %s: %v", r.task.ID, name, err)
		}
	}
}

func (r *run) fail(err error) error {
	r.Log("Error: " + err.Error())
	r.o.logger.Errorf("Run %s failed during %s: %v", r.task.ID, r.task.State, err)

	r.task.LastError = err.Error()
	r.task.State = model.RunStateFailed
	r.task.FinishedAt = time.Now()
	r.o.notifyUpdate(r.task)
	return err
}

// notifyUpdate calls the update callback if set
func (o *Orchestrator) notifyUpdate(task *model.MergeTask) {
	if o.onUpdate != nil {
		o.onUpdate(task)
	}
}

// generateRunID generates a unique, time-ordered run ID
func generateRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(RunIDPrefix+"%d", time.Now().UnixNano())
	}
	return RunIDPrefix + id.String()
}
