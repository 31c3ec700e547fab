package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/ytget/stream-merger/internal/app"
	"github.com/ytget/stream-merger/internal/config"
	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/merge"
	"github.com/ytget/stream-merger/internal/model"
	"github.com/ytget/stream-merger/internal/progress"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

// Progress bar resolution: one step per 0.1%
const barSteps = 1000

func main() {
	// 1. Parse command-line arguments
	videoURL := flag.String("video", "", "Video stream URL (required)")
	audioURL := flag.String("audio", "", "Audio stream URL (optional)")
	output := flag.String("o", merge.DefaultBaseName, "Output file name")
	dir := flag.String("dir", "", "Download directory")
	relayHost := flag.String("relay", "", "Relay host")
	ffmpegPath := flag.String("ffmpeg", "", "ffmpeg executable")
	engineURL := flag.String("engine-url", "", "URL of a static ffmpeg build used when -ffmpeg cannot be resolved")
	logLevel := flag.String("log-level", "", "Log level (error, warn, info, debug)")
	envFile := flag.String("env", "", "Path to a .env file")
	reveal := flag.Bool("reveal", false, "Reveal the saved file in the file manager")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("stream-merger %s\n", version)
		return
	}

	if *videoURL == "" {
		fmt.Fprintln(os.Stderr, "stream-merger: -video is required")
		flag.Usage()
		os.Exit(2)
	}

	// 2. Load configuration: defaults, then .env and environment, then flags
	var envPaths []string
	if *envFile != "" {
		envPaths = append(envPaths, *envFile)
	}
	envLoaded, envErr := config.LoadDotEnv(envPaths...)

	cfg := config.FromEnv()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.DownloadDir = *dir
		case "relay":
			cfg.RelayHost = *relayHost
		case "ffmpeg":
			cfg.FFmpegPath = *ffmpegPath
		case "engine-url":
			cfg.EngineAssetURL = *engineURL
		case "log-level":
			cfg.LogLevel = *logLevel
		case "reveal":
			cfg.RevealOnComplete = *reveal
		}
	})

	// 3. Initialize logger
	log := logger.NewLogger(cfg.LogLevel)
	if envErr != nil {
		log.Warnf("Failed to load env file %s: %v", envLoaded, envErr)
	} else if envLoaded != "" {
		log.Debugf("Loaded env file %s", envLoaded)
	}

	// 4. Initialize services
	a := app.New(cfg, log, nil)
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Run
	bar := newProgressBar()
	sink := progress.SinkFuncs{
		OnProgress: func(pct float64) {
			_ = bar.Set(int(pct / progress.Complete * barSteps))
		},
		OnLog: func(msg string) {
			// the bar already shows the percentage
			if progress.IsPercentLine(msg) {
				return
			}
			_ = bar.Clear()
			fmt.Fprintln(os.Stderr, msg)
		},
	}

	src := model.MediaSource{VideoURL: *videoURL, AudioURL: *audioURL}
	task, err := a.Orchestrator.DownloadAndMerge(ctx, src, *output, sink)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err != nil {
		log.Errorf("Merge failed (%s): %v", merge.Kind(err), err)
		a.Close()
		os.Exit(1)
	}

	fmt.Printf("%s  %s  %s\n",
		a.Saver.LastPath,
		humanize.Bytes(uint64(task.OutputSize)),
		task.GetElapsedString())
}

func newProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(barSteps,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("merging"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
