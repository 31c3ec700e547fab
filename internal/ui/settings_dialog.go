package ui

import (
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/stream-merger/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings     *config.Settings
	localization *Localization
	window       fyne.Window
	dialog       *dialog.ConfirmDialog
	onSaved      func()

	// UI components
	downloadDirEntry *widget.Entry
	relayHostEntry   *widget.Entry
	ffmpegPathEntry  *widget.Entry
	engineURLEntry   *widget.Entry
	userAgentEntry   *widget.Entry
	languageSelect   *widget.Select
	revealCheck      *widget.Check
	askSaveCheck     *widget.Check
}

// NewSettingsDialog creates a new settings dialog. onSaved runs after the
// settings have been written.
func NewSettingsDialog(settings *config.Settings, loc *Localization, window fyne.Window, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:     settings,
		localization: loc,
		window:       window,
		onSaved:      onSaved,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	t := sd.localization.GetText

	sd.downloadDirEntry = widget.NewEntry()
	sd.downloadDirEntry.SetPlaceHolder("Download directory path")
	browseDirBtn := widget.NewButton(t(KeyBrowse), sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	sd.relayHostEntry = widget.NewEntry()
	sd.relayHostEntry.SetPlaceHolder(config.DefaultRelayHost)

	sd.ffmpegPathEntry = widget.NewEntry()
	sd.ffmpegPathEntry.SetPlaceHolder(config.DefaultFFmpegPath)

	sd.engineURLEntry = widget.NewEntry()
	sd.engineURLEntry.SetPlaceHolder("https://...")

	sd.userAgentEntry = widget.NewEntry()
	sd.userAgentEntry.SetPlaceHolder(config.DefaultUserAgent)

	// Language selection, sorted for a stable order
	languageOptions := []string{}
	for code := range sd.settings.GetLanguageOptions() {
		languageOptions = append(languageOptions, code)
	}
	sort.Strings(languageOptions)
	sd.languageSelect = widget.NewSelect(languageOptions, nil)
	sd.languageSelect.PlaceHolder = "Select language"

	sd.revealCheck = widget.NewCheck(t(KeyRevealOnComplete), nil)
	sd.askSaveCheck = widget.NewCheck(t(KeyAskWhereToSave), nil)

	form := container.NewVBox(
		widget.NewLabel(t(KeyDownloadDirectory)+":"),
		downloadDirRow,
		sd.askSaveCheck,
		sd.revealCheck,

		widget.NewSeparator(),

		widget.NewLabel(t(KeyRelayHost)+":"),
		sd.relayHostEntry,

		widget.NewLabel(t(KeyFFmpegPath)+":"),
		sd.ffmpegPathEntry,

		widget.NewLabel(t(KeyEngineAssetURL)+":"),
		sd.engineURLEntry,

		widget.NewLabel(t(KeyUserAgent)+":"),
		sd.userAgentEntry,

		widget.NewSeparator(),

		widget.NewLabel(t(KeyLanguage)+":"),
		sd.languageSelect,
	)

	sd.dialog = dialog.NewCustomConfirm(
		t(KeySettings),
		t(KeySave),
		t(KeyCancel),
		container.NewVScroll(form),
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(SettingsWidth, SettingsHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.relayHostEntry.SetText(sd.settings.GetRelayHost())
	sd.ffmpegPathEntry.SetText(sd.settings.GetFFmpegPath())
	sd.engineURLEntry.SetText(sd.settings.GetEngineAssetURL())
	sd.userAgentEntry.SetText(sd.settings.GetUserAgent())
	sd.languageSelect.SetSelected(sd.settings.GetLanguage())
	sd.revealCheck.SetChecked(sd.settings.GetAutoRevealOnComplete())
	sd.askSaveCheck.SetChecked(sd.settings.GetAskWhereToSave())
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}
	sd.apply()

	if sd.onSaved != nil {
		sd.onSaved()
	}
	dialog.ShowInformation(sd.localization.GetText(KeySettings), sd.localization.GetText(KeySettingsSaved), sd.window)
}

// apply writes the form values; empty fields restore defaults
func (sd *SettingsDialog) apply() {
	if dir := strings.TrimSpace(sd.downloadDirEntry.Text); dir != "" {
		sd.settings.SetDownloadDirectory(dir)
	}
	sd.settings.SetRelayHost(strings.TrimSpace(sd.relayHostEntry.Text))
	sd.settings.SetFFmpegPath(strings.TrimSpace(sd.ffmpegPathEntry.Text))
	sd.settings.SetEngineAssetURL(strings.TrimSpace(sd.engineURLEntry.Text))
	sd.settings.SetUserAgent(strings.TrimSpace(sd.userAgentEntry.Text))
	sd.settings.SetAutoRevealOnComplete(sd.revealCheck.Checked)
	sd.settings.SetAskWhereToSave(sd.askSaveCheck.Checked)

	if sd.languageSelect.Selected != "" {
		sd.settings.SetLanguage(sd.languageSelect.Selected)
	}
}
