package ui

// Package ui provides user interface components

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyMerge             = "merge"
	KeyOpen              = "open"
	KeyReveal            = "reveal"
	KeySettings          = "settings"
	KeyFile              = "file"
	KeyLanguage          = "language"
	KeyDownloadDirectory = "download_directory"
	KeyRelayHost         = "relay_host"
	KeyFFmpegPath        = "ffmpeg_path"
	KeyEngineAssetURL    = "engine_asset_url"
	KeyUserAgent         = "user_agent"
	KeyRevealOnComplete  = "reveal_on_complete"
	KeyAskWhereToSave    = "ask_where_to_save"
	KeySave              = "save"
	KeyCancel            = "cancel"
	KeyBrowse            = "browse"
	KeyVideoURL          = "video_url"
	KeyAudioURL          = "audio_url"
	KeyFileName          = "file_name"
	KeyEnterVideoURL     = "enter_video_url"
	KeyEnterAudioURL     = "enter_audio_url"
	KeySettingsSaved     = "settings_saved"
	KeyMergeStarted      = "merge_started"
	KeyMergeCompleted    = "merge_completed"
	KeyMergeFailed       = "merge_failed"
	KeyMergeInProgress   = "merge_in_progress"
	KeyErrorOpeningFile  = "error_opening_file"
	KeyInvalidURL        = "invalid_url"
	KeyPleaseEnterURL    = "please_enter_url"
	KeySaveCancelled     = "save_cancelled"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		// Use system locale - simplified to English for now
		lang = "en"
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
		"pt": "Português",
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "Stream Merger",
		KeyMerge:             "Download & Merge",
		KeyOpen:              "Open",
		KeyReveal:            "Reveal",
		KeySettings:          "Settings",
		KeyFile:              "File",
		KeyLanguage:          "Language",
		KeyDownloadDirectory: "Download Directory",
		KeyRelayHost:         "Relay Host",
		KeyFFmpegPath:        "FFmpeg Path",
		KeyEngineAssetURL:    "FFmpeg Download URL",
		KeyUserAgent:         "User Agent",
		KeyRevealOnComplete:  "Reveal file when done",
		KeyAskWhereToSave:    "Ask where to save each file",
		KeySave:              "Save",
		KeyCancel:            "Cancel",
		KeyBrowse:            "Browse",
		KeyVideoURL:          "Video stream",
		KeyAudioURL:          "Audio stream",
		KeyFileName:          "File name",
		KeyEnterVideoURL:     "Video stream URL (https://...)",
		KeyEnterAudioURL:     "Audio stream URL (optional)",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyMergeStarted:      "Merge started",
		KeyMergeCompleted:    "Merge completed",
		KeyMergeFailed:       "Merge failed",
		KeyMergeInProgress:   "A merge is already running",
		KeyErrorOpeningFile:  "Error opening file",
		KeyInvalidURL:        "Invalid URL",
		KeyPleaseEnterURL:    "Please enter a video stream URL",
		KeySaveCancelled:     "Save cancelled",
	}

	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "Склейка потоков",
		KeyMerge:             "Скачать и склеить",
		KeyOpen:              "Открыть",
		KeyReveal:            "Показать",
		KeySettings:          "Настройки",
		KeyFile:              "Файл",
		KeyLanguage:          "Язык",
		KeyDownloadDirectory: "Папка загрузки",
		KeyRelayHost:         "Адрес прокси",
		KeyFFmpegPath:        "Путь к FFmpeg",
		KeyEngineAssetURL:    "URL загрузки FFmpeg",
		KeyUserAgent:         "User Agent",
		KeyRevealOnComplete:  "Показать файл по завершении",
		KeyAskWhereToSave:    "Спрашивать, куда сохранять",
		KeySave:              "Сохранить",
		KeyCancel:            "Отмена",
		KeyBrowse:            "Обзор",
		KeyVideoURL:          "Видеопоток",
		KeyAudioURL:          "Аудиопоток",
		KeyFileName:          "Имя файла",
		KeyEnterVideoURL:     "URL видеопотока (https://...)",
		KeyEnterAudioURL:     "URL аудиопотока (необязательно)",
		KeySettingsSaved:     "Настройки успешно сохранены!",
		KeyMergeStarted:      "Склейка начата",
		KeyMergeCompleted:    "Склейка завершена",
		KeyMergeFailed:       "Ошибка склейки",
		KeyMergeInProgress:   "Склейка уже выполняется",
		KeyErrorOpeningFile:  "Ошибка открытия файла",
		KeyInvalidURL:        "Неверный URL",
		KeyPleaseEnterURL:    "Пожалуйста, введите URL видеопотока",
		KeySaveCancelled:     "Сохранение отменено",
	}

	l.texts["pt"] = map[string]string{
		KeyAppTitle:          "Stream Merger",
		KeyMerge:             "Baixar e Juntar",
		KeyOpen:              "Abrir",
		KeyReveal:            "Mostrar",
		KeySettings:          "Configurações",
		KeyFile:              "Arquivo",
		KeyLanguage:          "Idioma",
		KeyDownloadDirectory: "Diretório de Download",
		KeyRelayHost:         "Host do Relay",
		KeyFFmpegPath:        "Caminho do FFmpeg",
		KeyEngineAssetURL:    "URL de Download do FFmpeg",
		KeyUserAgent:         "User Agent",
		KeyRevealOnComplete:  "Mostrar arquivo ao concluir",
		KeyAskWhereToSave:    "Perguntar onde salvar",
		KeySave:              "Salvar",
		KeyCancel:            "Cancelar",
		KeyBrowse:            "Navegar",
		KeyVideoURL:          "Stream de vídeo",
		KeyAudioURL:          "Stream de áudio",
		KeyFileName:          "Nome do arquivo",
		KeyEnterVideoURL:     "URL do stream de vídeo (https://...)",
		KeyEnterAudioURL:     "URL do stream de áudio (opcional)",
		KeySettingsSaved:     "Configurações salvas com sucesso!",
		KeyMergeStarted:      "Junção iniciada",
		KeyMergeCompleted:    "Junção concluída",
		KeyMergeFailed:       "Falha na junção",
		KeyMergeInProgress:   "Uma junção já está em andamento",
		KeyErrorOpeningFile:  "Erro ao abrir arquivo",
		KeyInvalidURL:        "URL inválida",
		KeyPleaseEnterURL:    "Por favor, digite a URL do stream de vídeo",
		KeySaveCancelled:     "Salvamento cancelado",
	}
}
