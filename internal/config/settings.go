package config

import (
	"fyne.io/fyne/v2"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir        = "download_directory"
	KeyRelayHost          = "relay_host"
	KeyFFmpegPath         = "ffmpeg_path"
	KeyEngineAssetURL     = "engine_asset_url"
	KeyUserAgent          = "user_agent"
	KeyLanguage           = "app_language"
	KeyAutoRevealComplete = "auto_reveal_on_complete"
	KeyAskWhereToSave     = "ask_where_to_save"
)

// Settings manages desktop application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		dir = defaultDownloadDir()
		s.SetDownloadDirectory(dir)
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetRelayHost returns the relay host
func (s *Settings) GetRelayHost() string {
	return s.app.Preferences().StringWithFallback(KeyRelayHost, DefaultRelayHost)
}

// SetRelayHost sets the relay host; empty restores the default
func (s *Settings) SetRelayHost(host string) {
	if host == "" {
		host = DefaultRelayHost
	}
	s.app.Preferences().SetString(KeyRelayHost, host)
}

// GetFFmpegPath returns the ffmpeg executable
func (s *Settings) GetFFmpegPath() string {
	return s.app.Preferences().StringWithFallback(KeyFFmpegPath, DefaultFFmpegPath)
}

// SetFFmpegPath sets the ffmpeg executable; empty restores the default
func (s *Settings) SetFFmpegPath(path string) {
	if path == "" {
		path = DefaultFFmpegPath
	}
	s.app.Preferences().SetString(KeyFFmpegPath, path)
}

// GetEngineAssetURL returns the URL a static ffmpeg build is fetched from
func (s *Settings) GetEngineAssetURL() string {
	return s.app.Preferences().StringWithFallback(KeyEngineAssetURL, DefaultEngineAssetURL)
}

// SetEngineAssetURL sets the engine asset URL
func (s *Settings) SetEngineAssetURL(url string) {
	s.app.Preferences().SetString(KeyEngineAssetURL, url)
}

// GetUserAgent returns the User-Agent sent to the relay
func (s *Settings) GetUserAgent() string {
	return s.app.Preferences().StringWithFallback(KeyUserAgent, DefaultUserAgent)
}

// SetUserAgent sets the User-Agent
func (s *Settings) SetUserAgent(ua string) {
	if ua == "" {
		ua = DefaultUserAgent
	}
	s.app.Preferences().SetString(KeyUserAgent, ua)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	return s.app.Preferences().StringWithFallback(KeyLanguage, DefaultLanguage)
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// GetAutoRevealOnComplete returns whether to reveal saved files
func (s *Settings) GetAutoRevealOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoRevealComplete, DefaultAutoRevealComplete)
}

// SetAutoRevealOnComplete sets whether to reveal saved files
func (s *Settings) SetAutoRevealOnComplete(autoReveal bool) {
	s.app.Preferences().SetBool(KeyAutoRevealComplete, autoReveal)
}

// GetAskWhereToSave returns whether a save dialog is shown for each file
func (s *Settings) GetAskWhereToSave() bool {
	return s.app.Preferences().BoolWithFallback(KeyAskWhereToSave, false)
}

// SetAskWhereToSave sets whether a save dialog is shown for each file
func (s *Settings) SetAskWhereToSave(ask bool) {
	s.app.Preferences().SetBool(KeyAskWhereToSave, ask)
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"ru":     "Русский",
		"pt":     "Português",
	}
}

// Config returns the stored settings as a Config
func (s *Settings) Config() Config {
	cfg := Default()
	cfg.RelayHost = s.GetRelayHost()
	cfg.FFmpegPath = s.GetFFmpegPath()
	cfg.EngineAssetURL = s.GetEngineAssetURL()
	cfg.DownloadDir = s.GetDownloadDirectory()
	cfg.RevealOnComplete = s.GetAutoRevealOnComplete()
	cfg.UserAgent = s.GetUserAgent()
	return cfg
}
