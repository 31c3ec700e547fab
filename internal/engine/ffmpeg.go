package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ytget/stream-merger/internal/logger"
)

// FFmpeg constants
const (
	FFmpegCommand      = "ffmpeg"
	ProgressPipeTarget = "pipe:2"
	ProgressTimePrefix = "out_time_us="
	ProgressEndLine    = "progress=end"
	ProgressNextLine   = "progress=continue"
	ProgressFrameKey   = "frame="
	ProgressOutTimeKey = "out_time="
	DurationPrefix     = "Duration:"
	WorkspacePattern   = "stream-merger-*"
	CacheSubdir        = "stream-merger"
	StderrTailLines    = 20
)

// Output lines containing one of these are forwarded as log events
var LogLineMarkers = []string{"frame=", "time=", "Error"}

// Options configures an FFmpeg engine
type Options struct {
	// BinaryPath is the ffmpeg executable name or path
	BinaryPath string
	// AssetURL is where a static ffmpeg build is fetched from when
	// BinaryPath cannot be resolved
	AssetURL string
	// CacheDir stores the fetched binary; defaults to the user cache dir
	CacheDir   string
	HTTPClient *http.Client
	Logger     logger.Logger
}

// FFmpeg runs a native ffmpeg binary against a private temp workspace.
type FFmpeg struct {
	opts   Options
	logger logger.Logger

	mu        sync.Mutex
	binary    string
	workDir   string
	loaded    bool
	listeners map[int]func(Event)
	nextID    int
}

// NewFFmpeg creates an unloaded engine
func NewFFmpeg(opts Options) *FFmpeg {
	if opts.BinaryPath == "" {
		opts.BinaryPath = FFmpegCommand
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &FFmpeg{
		opts:      opts,
		logger:    log,
		listeners: make(map[int]func(Event)),
	}
}

// IsLoaded implements Engine
func (f *FFmpeg) IsLoaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Load resolves the ffmpeg binary, fetching it from AssetURL if needed,
// and creates the private workspace.
func (f *FFmpeg) Load(ctx context.Context) error {
	binary, err := f.resolveBinary(ctx)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", WorkspacePattern)
	if err != nil {
		return fmt.Errorf("failed to create engine workspace: %w", err)
	}

	f.mu.Lock()
	f.binary = binary
	f.workDir = workDir
	f.loaded = true
	f.mu.Unlock()

	f.logger.Debugf("ffmpeg %s ready, workspace %s", binary, workDir)
	return nil
}

// Close removes the workspace. The engine must be loaded again before reuse.
func (f *FFmpeg) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return nil
	}
	f.loaded = false
	return os.RemoveAll(f.workDir)
}

func (f *FFmpeg) resolveBinary(ctx context.Context) (string, error) {
	path, err := exec.LookPath(f.opts.BinaryPath)
	if err == nil {
		return path, nil
	}
	if f.opts.AssetURL == "" {
		return "", fmt.Errorf("ffmpeg not found: %w", err)
	}
	return f.fetchBinary(ctx)
}

// fetchBinary downloads the binary at AssetURL into the cache dir once.
func (f *FFmpeg) fetchBinary(ctx context.Context) (string, error) {
	cacheDir := f.opts.CacheDir
	if cacheDir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate cache dir: %w", err)
		}
		cacheDir = filepath.Join(userCache, CacheSubdir)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	target := filepath.Join(cacheDir, FFmpegCommand)
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		return target, nil
	}

	f.logger.Infof("Fetching ffmpeg from %s", f.opts.AssetURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.AssetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create asset request: %w", err)
	}
	resp, err := f.opts.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch ffmpeg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch ffmpeg: %s", resp.Status)
	}

	tmp, err := os.CreateTemp(cacheDir, FFmpegCommand+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp binary: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write ffmpeg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to install ffmpeg: %w", err)
	}
	return target, nil
}

// path maps a virtual name into the workspace
func (f *FFmpeg) path(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return "", errors.New("engine not loaded")
	}
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid virtual file name: %q", name)
	}
	return filepath.Join(f.workDir, name), nil
}

// WriteFile implements Engine
func (f *FFmpeg) WriteFile(ctx context.Context, name string, data []byte) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

// ReadFile implements Engine
func (f *FFmpeg) ReadFile(ctx context.Context, name string) ([]byte, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// DeleteFile implements Engine
func (f *FFmpeg) DeleteFile(ctx context.Context, name string) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// Subscribe implements Engine
func (f *FFmpeg) Subscribe(fn func(Event)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *FFmpeg) emit(e Event) {
	f.mu.Lock()
	fns := make([]func(Event), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// BuildExecArgs prefixes args with the flags the engine relies on for
// progress reporting.
func BuildExecArgs(args []string) []string {
	full := []string{
		"-hide_banner",
		"-nostats",
		"-y",
		"-progress", ProgressPipeTarget,
	}
	return append(full, args...)
}

// Exec runs ffmpeg with args inside the workspace and returns its exit code.
// An error is returned only when the process could not be run at all.
func (f *FFmpeg) Exec(ctx context.Context, args []string) (int, error) {
	f.mu.Lock()
	binary, workDir, loaded := f.binary, f.workDir, f.loaded
	f.mu.Unlock()
	if !loaded {
		return -1, errors.New("engine not loaded")
	}

	cmd := exec.CommandContext(ctx, binary, BuildExecArgs(args)...)
	cmd.Dir = workDir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	f.logger.Debugf("ffmpeg cmd=%s %s", binary, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := f.monitorProgress(stderr)

	err = cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		f.logger.Warnf("ffmpeg exited with code %d: %s", exitErr.ExitCode(), strings.Join(tail, " | "))
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("ffmpeg failed: %w", err)
}

// monitorProgress consumes ffmpeg stderr until it closes, emitting progress
// and filtered log events. Each -progress block is reported as one
// "frame=N time=T" log line. It returns the last lines seen.
func (f *FFmpeg) monitorProgress(stderr io.Reader) []string {
	scanner := bufio.NewScanner(stderr)
	var totalDuration float64
	var tail []string
	var frame, outTime string

	flushStats := func() {
		if frame == "" {
			return
		}
		if outTime == "" {
			outTime = "N/A"
		}
		f.emit(Event{Kind: EventLog, Message: fmt.Sprintf("frame=%s time=%s", frame, outTime)})
		frame, outTime = "", ""
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if d, ok := parseDuration(line); ok && d > totalDuration {
			totalDuration = d
		}

		switch {
		case strings.HasPrefix(line, ProgressTimePrefix):
			timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
			if err != nil || totalDuration <= 0 {
				continue
			}
			progress := float64(timeMicroseconds) / 1000000.0 / totalDuration
			if progress > 1.0 {
				progress = 1.0
			}
			if progress < 0 {
				progress = 0
			}
			f.emit(Event{Kind: EventProgress, Progress: progress})
			continue
		case strings.HasPrefix(line, ProgressFrameKey) && isProgressKeyLine(line):
			frame = strings.TrimPrefix(line, ProgressFrameKey)
			continue
		case strings.HasPrefix(line, ProgressOutTimeKey):
			outTime = strings.TrimPrefix(line, ProgressOutTimeKey)
			continue
		case line == ProgressNextLine:
			flushStats()
			continue
		case line == ProgressEndLine:
			flushStats()
			f.emit(Event{Kind: EventProgress, Progress: 1})
			continue
		case isProgressKeyLine(line):
			continue
		}

		tail = append(tail, line)
		if len(tail) > StderrTailLines {
			tail = tail[1:]
		}
		for _, marker := range LogLineMarkers {
			if strings.Contains(line, marker) {
				f.emit(Event{Kind: EventLog, Message: line})
				break
			}
		}
	}

	// keep the pipe drained if the scanner stopped early, e.g. on an overlong line
	if err := scanner.Err(); err != nil {
		f.logger.Warnf("ffmpeg stderr scan stopped: %v", err)
	}
	_, _ = io.Copy(io.Discard, stderr)
	return tail
}

// isProgressKeyLine reports whether line belongs to a -progress block
// (key=value with no spaces).
func isProgressKeyLine(line string) bool {
	return strings.Contains(line, "=") && !strings.ContainsAny(line, " \t")
}

// parseDuration extracts seconds from "Duration: 00:01:02.50, start: ...".
func parseDuration(line string) (float64, bool) {
	idx := strings.Index(line, DurationPrefix)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len(DurationPrefix):])
	if comma := strings.Index(rest, ","); comma >= 0 {
		rest = rest[:comma]
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours*3600+minutes*60) + seconds, true
}
