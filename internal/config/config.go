package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ytget/stream-merger/internal/platform"
)

// Default values
const (
	// DefaultRelayHost is a locally running relay worker
	DefaultRelayHost = "http://localhost:8787"
	// DefaultFFmpegPath is resolved through PATH
	DefaultFFmpegPath = "ffmpeg"
	// DefaultEngineAssetURL is empty: no binary is fetched unless configured
	DefaultEngineAssetURL     = ""
	DefaultUserAgent          = "stream-merger/1.0"
	DefaultLogLevel           = "info"
	DefaultLanguage           = "system"
	DefaultAutoRevealComplete = true
	DefaultChunkSize          = 64 * 1024
	FallbackDownloadDir       = "/tmp/downloads"
)

// Environment variables read by FromEnv
const (
	EnvPrefix         = "STREAM_MERGER_"
	EnvRelayHost      = EnvPrefix + "RELAY_HOST"
	EnvFFmpegPath     = EnvPrefix + "FFMPEG_PATH"
	EnvEngineAssetURL = EnvPrefix + "ENGINE_ASSET_URL"
	EnvDownloadDir    = EnvPrefix + "DOWNLOAD_DIR"
	EnvReveal         = EnvPrefix + "REVEAL"
	EnvUserAgent      = EnvPrefix + "USER_AGENT"
	EnvLogLevel       = EnvPrefix + "LOG_LEVEL"
	EnvChunkSize      = EnvPrefix + "CHUNK_SIZE"
)

// Config is the resolved configuration shared by the CLI and the desktop app
type Config struct {
	RelayHost        string
	FFmpegPath       string
	EngineAssetURL   string
	DownloadDir      string
	RevealOnComplete bool
	UserAgent        string
	LogLevel         string
	ChunkSize        int
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		RelayHost:        DefaultRelayHost,
		FFmpegPath:       DefaultFFmpegPath,
		EngineAssetURL:   DefaultEngineAssetURL,
		DownloadDir:      defaultDownloadDir(),
		RevealOnComplete: false,
		UserAgent:        DefaultUserAgent,
		LogLevel:         DefaultLogLevel,
		ChunkSize:        DefaultChunkSize,
	}
}

// LoadDotEnv loads the first .env file found among paths (or ./.env and
// ../.env when none are given) into the process environment. Variables
// already set are not overridden. It returns the loaded path, if any.
func LoadDotEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join("..", ".env")}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, godotenv.Load(path)
		}
	}
	return "", nil
}

// FromEnv returns Default overridden by STREAM_MERGER_* variables.
func FromEnv() Config {
	cfg := Default()
	cfg.RelayHost = getEnv(EnvRelayHost, cfg.RelayHost)
	cfg.FFmpegPath = getEnv(EnvFFmpegPath, cfg.FFmpegPath)
	cfg.EngineAssetURL = getEnv(EnvEngineAssetURL, cfg.EngineAssetURL)
	cfg.DownloadDir = getEnv(EnvDownloadDir, cfg.DownloadDir)
	cfg.RevealOnComplete = getEnvBool(EnvReveal, cfg.RevealOnComplete)
	cfg.UserAgent = getEnv(EnvUserAgent, cfg.UserAgent)
	cfg.LogLevel = strings.ToLower(getEnv(EnvLogLevel, cfg.LogLevel))

	if size := getEnvInt(EnvChunkSize, cfg.ChunkSize); size > 0 {
		cfg.ChunkSize = size
	}
	return cfg
}

func defaultDownloadDir() string {
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		return FallbackDownloadDir
	}
	return dir
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return value
}
