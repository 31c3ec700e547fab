package app

import (
	"net/http"
	"time"

	"github.com/ytget/stream-merger/internal/config"
	"github.com/ytget/stream-merger/internal/delivery"
	"github.com/ytget/stream-merger/internal/download"
	"github.com/ytget/stream-merger/internal/engine"
	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/merge"
	"github.com/ytget/stream-merger/internal/relay"
)

// Transport timeouts. Whole-body reads are unbounded since streams can be large.
const (
	TLSHandshakeTimeout   = 15 * time.Second
	ResponseHeaderTimeout = 60 * time.Second
	IdleConnTimeout       = 90 * time.Second
)

// App holds the services of one process
type App struct {
	Config       config.Config
	Engine       *engine.FFmpeg
	Downloader   *download.Downloader
	Saver        *delivery.DirSaver
	Orchestrator *merge.Orchestrator

	logger logger.Logger
}

// New wires the engine, relay, downloader and saver described by cfg into
// an orchestrator. A nil saver delivers into cfg.DownloadDir.
func New(cfg config.Config, log logger.Logger, saver delivery.Saver) *App {
	if log == nil {
		log = logger.Nop()
	}

	client := NewHTTPClient()

	ffmpeg := engine.NewFFmpeg(engine.Options{
		BinaryPath: cfg.FFmpegPath,
		AssetURL:   cfg.EngineAssetURL,
		HTTPClient: client,
		Logger:     log,
	})

	downloader := download.NewDownloader(client, log, cfg.UserAgent)
	if cfg.ChunkSize > 0 {
		downloader.SetChunkSize(cfg.ChunkSize)
	}

	dirSaver := delivery.NewDirSaver(cfg.DownloadDir, cfg.RevealOnComplete, log)
	if saver == nil {
		saver = dirSaver
	}

	orchestrator := merge.NewOrchestrator(
		engine.NewManager(ffmpeg, log),
		relay.NewBuilder(cfg.RelayHost),
		downloader,
		saver,
		log,
	)

	log.Debugf("App configured: relay=%s ffmpeg=%s dir=%s", cfg.RelayHost, cfg.FFmpegPath, cfg.DownloadDir)

	return &App{
		Config:       cfg,
		Engine:       ffmpeg,
		Downloader:   downloader,
		Saver:        dirSaver,
		Orchestrator: orchestrator,
		logger:       log,
	}
}

// Close releases the engine workspace
func (a *App) Close() error {
	if err := a.Engine.Close(); err != nil {
		a.logger.Warnf("Failed to release engine workspace: %v", err)
		return err
	}
	return nil
}

// NewHTTPClient returns the client used for relay and engine asset downloads
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = TLSHandshakeTimeout
	transport.ResponseHeaderTimeout = ResponseHeaderTimeout
	transport.IdleConnTimeout = IdleConnTimeout
	return &http.Client{Transport: transport}
}
