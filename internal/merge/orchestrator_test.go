package merge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/stream-merger/internal/download"
	"github.com/ytget/stream-merger/internal/engine"
	"github.com/ytget/stream-merger/internal/model"
	"github.com/ytget/stream-merger/internal/progress"
	"github.com/ytget/stream-merger/internal/relay"
)

const (
	videoURL = "https://cdn.example.com/video.m4s?sig=abc"
	audioURL = "https://cdn.example.com/audio.m4s?sig=def"
)

// fakeEngine records every call and plays back scripted progress on Exec.
type fakeEngine struct {
	mu        sync.Mutex
	loaded    bool
	loads     int
	loadErr   error
	files     map[string][]byte
	calls     []string
	execArgs  [][]string
	exitCode  int
	execErr   error
	progress  []float64
	listeners map[int]func(engine.Event)
	nextID    int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		files:     make(map[string][]byte),
		listeners: make(map[int]func(engine.Event)),
		progress:  []float64{0.2, 0.6, 1.0},
	}
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) IsLoaded() bool { return f.loaded }

func (f *fakeEngine) Load(ctx context.Context) error {
	f.loads++
	f.record("load")
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = true
	return nil
}

func (f *fakeEngine) WriteFile(ctx context.Context, name string, data []byte) error {
	f.record("write:" + name)
	f.files[name] = append([]byte(nil), data...)
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, args []string) (int, error) {
	f.record("exec")
	f.execArgs = append(f.execArgs, args)
	for _, p := range f.progress {
		for _, fn := range f.listeners {
			fn(engine.Event{Kind: engine.EventProgress, Progress: p})
		}
	}
	for _, fn := range f.listeners {
		fn(engine.Event{Kind: engine.EventLog, Message: "frame=10 time=00:00:01.000000"})
	}
	if f.execErr != nil || f.exitCode != 0 {
		return f.exitCode, f.execErr
	}
	f.files[engine.OutputFile] = append(append([]byte(nil), f.files[engine.VideoFile]...), f.files[engine.AudioFile]...)
	return 0, nil
}

func (f *fakeEngine) ReadFile(ctx context.Context, name string) ([]byte, error) {
	f.record("read:" + name)
	data, ok := f.files[name]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func (f *fakeEngine) DeleteFile(ctx context.Context, name string) error {
	f.record("delete:" + name)
	if _, ok := f.files[name]; !ok {
		return errors.New("no such file")
	}
	delete(f.files, name)
	return nil
}

func (f *fakeEngine) Subscribe(fn func(engine.Event)) func() {
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() { delete(f.listeners, id) }
}

func (f *fakeEngine) writes() []string {
	var out []string
	for _, c := range f.calls {
		if len(c) > 6 && c[:6] == "write:" {
			out = append(out, c[6:])
		}
	}
	return out
}

type fakeSaver struct {
	data     []byte
	filename string
	mimeType string
	calls    int
	err      error
}

func (s *fakeSaver) SaveAs(ctx context.Context, data []byte, filename, mimeType string) error {
	s.calls++
	s.data, s.filename, s.mimeType = data, filename, mimeType
	return s.err
}

type recordingSink struct {
	mu     sync.Mutex
	events []float64
	logs   []string
}

func (s *recordingSink) Progress(pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, pct)
}

func (s *recordingSink) Log(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, msg)
}

// relayServer serves bodies keyed by the decoded target parameter.
type relayServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies map[string][]byte
	status map[string]int
	hits   map[string]int
}

func newRelayServer(t *testing.T) *relayServer {
	rs := &relayServer{
		bodies: make(map[string][]byte),
		status: make(map[string]int),
		hits:   make(map[string]int),
	}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get(relay.TargetParam)
		rs.mu.Lock()
		rs.hits[target]++
		status, body := rs.status[target], rs.bodies[target]
		rs.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *relayServer) hitCount(target string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.hits[target]
}

func media(n int, fill byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = fill
	}
	return data
}

type fixture struct {
	engine *fakeEngine
	saver  *fakeSaver
	relay  *relayServer
	orch   *Orchestrator
	sink   *recordingSink
}

func newFixture(t *testing.T) *fixture {
	fe := newFakeEngine()
	fs := &fakeSaver{}
	rs := newRelayServer(t)
	rs.bodies[videoURL] = media(8192, 'v')
	rs.bodies[audioURL] = media(2048, 'a')

	fetcher := download.NewDownloader(rs.Client(), nil, "")
	fetcher.SetChunkSize(1024)

	orch := NewOrchestrator(engine.NewManager(fe, nil), relay.NewBuilder(rs.URL), fetcher, fs, nil)
	return &fixture{engine: fe, saver: fs, relay: rs, orch: orch, sink: &recordingSink{}}
}

func assertNonDecreasing(t *testing.T, events []float64) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		if events[i] < events[i-1] {
			t.Fatalf("progress decreased at %d: %v", i, events)
		}
	}
}

func TestDownloadAndMerge_VideoOnly(t *testing.T) {
	fx := newFixture(t)

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL}, "clip", fx.sink)
	require.NoError(t, err)

	assert.Equal(t, model.RunStateDone, task.State)
	assert.Equal(t, "clip.mp4", fx.saver.filename)
	assert.Equal(t, "video/mp4", fx.saver.mimeType)
	assert.Equal(t, media(8192, 'v'), fx.saver.data)
	assert.Equal(t, int64(8192), task.OutputSize)
	assert.Equal(t, 100.0, task.Percent)

	events := fx.sink.events
	assertNonDecreasing(t, events)
	require.NotEmpty(t, events)
	assert.Equal(t, 100.0, events[len(events)-1])

	// 80 at the end of the video stage, then straight to 95, then the remux curve
	idx80 := indexOf(events, 80)
	require.GreaterOrEqual(t, idx80, 0)
	rest := events[idx80:]
	for len(rest) > 0 && rest[0] == 80 {
		rest = rest[1:]
	}
	require.NotEmpty(t, rest)
	assert.Equal(t, 95.0, rest[0])
	for _, e := range rest {
		assert.GreaterOrEqual(t, e, 95.0)
	}

	// one "Progress: N%" line per rendered change, never repeated
	logs := fx.sink.logs
	for _, want := range []string{"Progress: 80.0%", "Progress: 95.0%", "Progress: 100.0%"} {
		assert.Equal(t, 1, countString(logs, want), want)
	}
	assert.Less(t, indexOfString(logs, "Progress: 80.0%"), indexOfString(logs, "Progress: 95.0%"))
	assert.Less(t, indexOfString(logs, "Progress: 95.0%"), indexOfString(logs, "Progress: 100.0%"))
	assert.Less(t, indexOfString(logs, "Progress: 100.0%"), indexOfString(logs, "All done! Saved clip.mp4"))

	assert.Equal(t, []string{engine.VideoFile}, fx.engine.writes())
	require.Len(t, fx.engine.execArgs, 1)
	assert.Equal(t, RemuxArgs(false), fx.engine.execArgs[0])
	assert.Empty(t, fx.engine.files, "teardown removes every engine file")
}

func TestDownloadAndMerge_VideoAndAudio(t *testing.T) {
	fx := newFixture(t)

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL, AudioURL: audioURL}, "clip.mp4", fx.sink)
	require.NoError(t, err)

	assert.Equal(t, model.RunStateDone, task.State)
	assert.Equal(t, "clip.mp4", fx.saver.filename)

	// both inputs are written before the two-input command runs
	calls := fx.engine.calls
	execIdx := indexOfString(calls, "exec")
	require.GreaterOrEqual(t, execIdx, 0)
	assert.Less(t, indexOfString(calls, "write:"+engine.VideoFile), execIdx)
	assert.Less(t, indexOfString(calls, "write:"+engine.AudioFile), execIdx)
	assert.Less(t, indexOfString(calls, "write:"+engine.VideoFile), indexOfString(calls, "write:"+engine.AudioFile))
	assert.Equal(t, []string{"-i", engine.VideoFile, "-i", engine.AudioFile}, fx.engine.execArgs[0][:4])

	events := fx.sink.events
	assertNonDecreasing(t, events)
	assert.Contains(t, events, 80.0)
	assert.Contains(t, events, 95.0)
	assert.Equal(t, 100.0, events[len(events)-1])
	assert.Len(t, fx.saver.data, 8192+2048)
}

func TestDownloadAndMerge_RelayErrorOnVideo(t *testing.T) {
	fx := newFixture(t)
	fx.relay.status[videoURL] = http.StatusBadGateway

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL, AudioURL: audioURL}, "clip", fx.sink)
	require.Error(t, err)

	var dlErr *download.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, http.StatusBadGateway, dlErr.StatusCode)
	assert.Equal(t, KindDownload, Kind(err))
	assert.Equal(t, model.RunStateFailed, task.State)

	assert.Empty(t, fx.engine.writes())
	assert.Zero(t, fx.relay.hitCount(audioURL), "audio stage never entered")
	assert.Zero(t, fx.saver.calls)
	assert.Contains(t, fx.sink.logs, "Error: "+err.Error())
}

func TestDownloadAndMerge_RemuxFailure(t *testing.T) {
	fx := newFixture(t)
	fx.engine.exitCode = 1

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL, AudioURL: audioURL}, "clip", fx.sink)

	var remuxErr *RemuxError
	require.ErrorAs(t, err, &remuxErr)
	assert.Equal(t, 1, remuxErr.Code)
	assert.Equal(t, KindRemux, Kind(err))
	assert.Equal(t, model.RunStateFailed, task.State)
	assert.Equal(t, err.Error(), task.LastError)

	calls := fx.engine.calls
	assert.Contains(t, calls, "delete:"+engine.VideoFile)
	assert.Contains(t, calls, "delete:"+engine.AudioFile)
	assert.Empty(t, fx.engine.files)
	assert.Zero(t, fx.saver.calls)
	assertNonDecreasing(t, fx.sink.events)
}

func TestDownloadAndMerge_ExecCannotRun(t *testing.T) {
	fx := newFixture(t)
	fx.engine.execErr = errors.New("exec format error")
	fx.engine.exitCode = -1

	_, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL}, "clip", fx.sink)

	var remuxErr *RemuxError
	require.ErrorAs(t, err, &remuxErr)
	assert.Equal(t, -1, remuxErr.Code)
	assert.Contains(t, err.Error(), "exec format error")
}

func TestDownloadAndMerge_TooSmallVideo(t *testing.T) {
	fx := newFixture(t)
	fx.relay.bodies[videoURL] = []byte("<html>upstream error</html>")

	_, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL, AudioURL: audioURL}, "clip", fx.sink)

	var corruptErr *CorruptTransferError
	require.ErrorAs(t, err, &corruptErr)
	assert.Equal(t, VideoLabel, corruptErr.Label)
	assert.Equal(t, len("<html>upstream error</html>"), corruptErr.Size)
	assert.Equal(t, KindCorruptTransfer, Kind(err))
	assert.Empty(t, fx.engine.writes())
	assert.Zero(t, fx.relay.hitCount(audioURL))
}

func TestDownloadAndMerge_TooSmallAudio(t *testing.T) {
	fx := newFixture(t)
	fx.relay.bodies[audioURL] = media(1023, 'a')

	_, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL, AudioURL: audioURL}, "clip", fx.sink)

	var corruptErr *CorruptTransferError
	require.ErrorAs(t, err, &corruptErr)
	assert.Equal(t, AudioLabel, corruptErr.Label)
	assert.Equal(t, []string{engine.VideoFile}, fx.engine.writes())
	assert.Contains(t, fx.engine.calls, "delete:"+engine.VideoFile)
	assert.Empty(t, fx.engine.files)
}

func TestDownloadAndMerge_EngineLoadFailure(t *testing.T) {
	fx := newFixture(t)
	fx.engine.loadErr = errors.New("core fetch failed")

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL}, "clip", fx.sink)

	var loadErr *EngineLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, KindEngineLoad, Kind(err))
	assert.Equal(t, model.RunStateFailed, task.State)
	assert.Zero(t, fx.relay.hitCount(videoURL), "no download before the engine is ready")
	assert.Contains(t, fx.sink.logs, "Loading FFmpeg core...")
	assert.NotContains(t, fx.sink.logs, "FFmpeg loaded!")
}

func TestDownloadAndMerge_DeliveryFailure(t *testing.T) {
	fx := newFixture(t)
	fx.saver.err = errors.New("disk full")

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL}, "clip", fx.sink)

	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, KindDelivery, Kind(err))
	assert.Equal(t, model.RunStateFailed, task.State)
	assert.Equal(t, 100.0, fx.sink.events[len(fx.sink.events)-1], "completion is reported before delivery")
	assert.Empty(t, fx.engine.files)
}

func TestDownloadAndMerge_InvalidSource(t *testing.T) {
	fx := newFixture(t)

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{AudioURL: audioURL}, "clip", fx.sink)

	assert.ErrorIs(t, err, model.ErrMissingVideo)
	assert.Equal(t, KindInvalidSource, Kind(err))
	assert.Equal(t, model.RunStateFailed, task.State)
	assert.Zero(t, fx.engine.loads)
}

func TestDownloadAndMerge_EngineLoadedOnceAcrossRuns(t *testing.T) {
	fx := newFixture(t)
	src := model.MediaSource{VideoURL: videoURL}

	for i := 0; i < 2; i++ {
		_, err := fx.orch.DownloadAndMerge(context.Background(), src, "clip", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fx.engine.loads)
}

func TestDownloadAndMerge_StateUpdates(t *testing.T) {
	fx := newFixture(t)

	var states []model.RunState
	fx.orch.SetUpdateCallback(func(task *model.MergeTask) {
		if len(states) == 0 || states[len(states)-1] != task.State {
			states = append(states, task.State)
		}
	})

	task, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL, AudioURL: audioURL}, "clip", fx.sink)
	require.NoError(t, err)

	assert.Equal(t, []model.RunState{
		model.RunStateIdle,
		model.RunStateEngineLoading,
		model.RunStateDownloadingVideo,
		model.RunStateDownloadingAudio,
		model.RunStateRemuxing,
		model.RunStateExtracting,
		model.RunStateDelivering,
		model.RunStateDone,
	}, states)
	assert.NotEmpty(t, task.ID)
	assert.False(t, task.FinishedAt.IsZero())
}

func TestDownloadAndMerge_ForwardsEngineLogs(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL}, "clip", fx.sink)
	require.NoError(t, err)
	assert.Contains(t, fx.sink.logs, "[FFmpeg] frame=10 time=00:00:01.000000")
	assert.Contains(t, fx.sink.logs, "Step 1/4: Downloading video stream...")
}

func TestDownloadAndMerge_LogsEngineLoading(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL}, "clip", fx.sink)
	require.NoError(t, err)

	logs := fx.sink.logs
	loading := indexOfString(logs, "Loading FFmpeg core...")
	loaded := indexOfString(logs, "FFmpeg loaded!")
	require.GreaterOrEqual(t, loading, 0)
	require.GreaterOrEqual(t, loaded, 0)
	assert.Less(t, loading, loaded)
	assert.Less(t, loaded, indexOfString(logs, "Step 1/4: Downloading video stream..."))
}

// roundTripFunc lets a test hand-craft relay responses.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// truncatedBody yields its data and then io.ErrUnexpectedEOF, as net/http does
// when the connection closes before Content-Length is satisfied.
type truncatedBody struct {
	r *bytes.Reader
}

func (b *truncatedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

func (b *truncatedBody) Close() error { return nil }

func TestDownloadAndMerge_TruncatedVideoIsCorruptTransfer(t *testing.T) {
	const announced, received = 4096, 500

	var requests int
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		requests++
		return &http.Response{
			StatusCode:    http.StatusOK,
			Status:        "200 OK",
			ContentLength: announced,
			Header:        http.Header{"Content-Length": []string{strconv.Itoa(announced)}},
			Body:          &truncatedBody{r: bytes.NewReader(media(received, 'v'))},
			Request:       r,
		}, nil
	})}
	fetcher := download.NewDownloader(client, nil, "")
	fetcher.SetChunkSize(256)

	fe := newFakeEngine()
	fs := &fakeSaver{}
	sink := &recordingSink{}
	orch := NewOrchestrator(engine.NewManager(fe, nil), relay.NewBuilder("http://relay.invalid"), fetcher, fs, nil)

	task, err := orch.DownloadAndMerge(context.Background(), model.MediaSource{VideoURL: videoURL, AudioURL: audioURL}, "clip", sink)

	var corruptErr *CorruptTransferError
	require.ErrorAs(t, err, &corruptErr)
	assert.Equal(t, VideoLabel, corruptErr.Label)
	assert.Equal(t, received, corruptErr.Size, "buffer holds exactly the bytes received")
	assert.Less(t, corruptErr.Size, MinMediaSize)
	assert.Equal(t, KindCorruptTransfer, Kind(err))
	assert.Equal(t, model.RunStateFailed, task.State)

	// progress follows the announced length, then snaps to the end of the range
	assert.Contains(t, sink.events, 256.0/announced*progress.VideoRange.End)
	assert.Contains(t, sink.events, float64(received)/announced*progress.VideoRange.End)
	assert.Contains(t, sink.events, progress.VideoRange.End)
	assertNonDecreasing(t, sink.events)

	assert.Equal(t, 1, requests, "audio stage never entered")
	assert.Empty(t, fe.writes())
	assert.Zero(t, fs.calls)
}

func indexOf(values []float64, v float64) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

func countString(values []string, v string) int {
	n := 0
	for _, x := range values {
		if x == v {
			n++
		}
	}
	return n
}

func indexOfString(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
