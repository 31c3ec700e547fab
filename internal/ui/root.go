package ui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"github.com/ytget/stream-merger/internal/app"
	"github.com/ytget/stream-merger/internal/config"
	"github.com/ytget/stream-merger/internal/delivery"
	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/merge"
	"github.com/ytget/stream-merger/internal/model"
	"github.com/ytget/stream-merger/internal/platform"
	"github.com/ytget/stream-merger/internal/progress"
)

// RootUI represents the main UI structure
type RootUI struct {
	window       fyne.Window
	settings     *config.Settings
	localization *Localization
	logger       logger.Logger

	form          *widget.Form
	videoEntry    *widget.Entry
	audioEntry    *widget.Entry
	fileNameEntry *widget.Entry
	mergeBtn      *widget.Button
	progressBar   *widget.ProgressBar
	statusLabel   *widget.Label
	logList       *widget.List
	logLines      binding.StringList

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label

	// services are rebuilt from settings before a run when marked stale
	svcMu       sync.Mutex
	services    *app.App
	dialogSaver *DialogSaver
	stale       bool
	running     bool

	// UI update debouncing
	lastUIUpdate  time.Time
	lastState     model.RunState
	uiUpdateMutex sync.Mutex
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, fyneApp fyne.App, log logger.Logger) *RootUI {
	if log == nil {
		log = logger.Nop()
	}

	settings := config.NewSettings(fyneApp)

	localization := NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	if err := platform.CreateDirectoryIfNotExists(settings.GetDownloadDirectory()); err != nil {
		log.Warnf("Failed to ensure download directory: %v", err)
	}

	ui := &RootUI{
		window:       window,
		settings:     settings,
		localization: localization,
		logger:       log,
		logLines:     binding.NewStringList(),
		stale:        true,
	}

	window.SetTitle(localization.GetText(KeyAppTitle))
	window.SetOnClosed(ui.shutdown)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.videoEntry = widget.NewEntry()
	ui.videoEntry.Validator = ui.validateURL
	ui.audioEntry = widget.NewEntry()
	ui.audioEntry.Validator = ui.validateURL
	ui.fileNameEntry = widget.NewEntry()
	ui.fileNameEntry.SetPlaceHolder(merge.DefaultBaseName + merge.OutputExtension)
	ui.fileNameEntry.OnSubmitted = func(string) { ui.onMergeClick() }

	ui.mergeBtn = widget.NewButton("", ui.onMergeClick)
	ui.mergeBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	ui.progressBar = widget.NewProgressBar()
	ui.progressBar.Max = progress.Complete
	ui.progressBar.TextFormatter = func() string {
		return fmt.Sprintf(ProgressLabelFormat, ui.progressBar.Value)
	}
	ui.statusLabel = widget.NewLabel("")
	ui.statusLabel.Truncation = fyne.TextTruncateEllipsis

	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Wrapping = fyne.TextWrapWord
	ui.notificationContainer = container.NewPadded(ui.notificationLabel)
	ui.notificationContainer.Hide()

	ui.logList = widget.NewListWithData(ui.logLines,
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.TextStyle = fyne.TextStyle{Monospace: true}
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(item binding.DataItem, obj fyne.CanvasObject) {
			obj.(*widget.Label).Bind(item.(binding.String))
		},
	)

	ui.form = widget.NewForm(
		widget.NewFormItem("", ui.videoEntry),
		widget.NewFormItem("", ui.audioEntry),
		widget.NewFormItem("", ui.fileNameEntry),
	)

	top := container.NewVBox(
		container.NewBorder(nil, nil, nil, settingsBtn, ui.form),
		container.NewBorder(nil, nil, nil, ui.mergeBtn, ui.progressBar),
		ui.statusLabel,
		ui.notificationContainer,
	)

	ui.window.SetContent(container.NewBorder(top, nil, nil, nil, ui.logList))
	ui.refreshUITexts()
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem(ui.localization.GetText(KeySettings), ui.onShowSettings)

	languageMenu := fyne.NewMenu(ui.localization.GetText(KeyLanguage))
	for code, name := range ui.localization.GetAvailableLanguages() {
		langCode := code
		langItem := fyne.NewMenuItem(name, func() {
			ui.onLanguageChange(langCode)
		})
		langItem.Checked = ui.localization.GetCurrentLanguage() == code
		languageMenu.Items = append(languageMenu.Items, langItem)
	}

	ui.window.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu(ui.localization.GetText(KeyFile), settingsItem),
		languageMenu,
	))
}

// onLanguageChange handles language change
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	ui.settings.SetLanguage(langCode)
	ui.refreshUITexts()
	ui.createMenu()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	t := ui.localization.GetText
	ui.window.SetTitle(t(KeyAppTitle))
	ui.videoEntry.SetPlaceHolder(t(KeyEnterVideoURL))
	ui.audioEntry.SetPlaceHolder(t(KeyEnterAudioURL))
	ui.mergeBtn.SetText(t(KeyMerge))

	ui.form.Items[0].Text = t(KeyVideoURL)
	ui.form.Items[1].Text = t(KeyAudioURL)
	ui.form.Items[2].Text = t(KeyFileName)
	ui.form.Refresh()
}

// validateURL accepts empty input and absolute http(s) URLs
func (ui *RootUI) validateURL(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	parsedURL, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return err
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("URL has no host")
	}

	return nil
}

// cleanInput strips line breaks and tabs pasted along with a URL
func cleanInput(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}

// onMergeClick validates the form and starts a run in the background
func (ui *RootUI) onMergeClick() {
	src := model.MediaSource{
		VideoURL: cleanInput(ui.videoEntry.Text),
		AudioURL: cleanInput(ui.audioEntry.Text),
	}

	if src.VideoURL == "" {
		ui.setNotification(ui.localization.GetText(KeyPleaseEnterURL))
		return
	}
	for _, raw := range []string{src.VideoURL, src.AudioURL} {
		if err := ui.validateURL(raw); err != nil {
			ui.setNotification(ui.localization.GetText(KeyInvalidURL) + ": " + err.Error())
			return
		}
	}

	svc, ok := ui.acquireServices()
	if !ok {
		ui.setNotification(ui.localization.GetText(KeyMergeInProgress))
		return
	}

	fileName := cleanInput(ui.fileNameEntry.Text)
	ui.logger.Infof("Starting merge: video=%s audio=%s file=%q", src.VideoURL, src.AudioURL, fileName)

	ui.mergeBtn.Disable()
	ui.progressBar.SetValue(0)
	_ = ui.logLines.Set(nil)
	ui.setNotification(ui.localization.GetText(KeyMergeStarted))

	sink := progress.SinkFuncs{
		OnProgress: func(pct float64) {
			fyne.Do(func() { ui.progressBar.SetValue(pct) })
		},
		OnLog: ui.appendLog,
	}

	go func() {
		task, err := svc.Orchestrator.DownloadAndMerge(context.Background(), src, fileName, sink)
		savedPath := ui.savedPath(svc)
		ui.releaseServices()

		fyne.Do(func() {
			ui.mergeBtn.Enable()
			if err != nil {
				ui.setNotification(fmt.Sprintf("%s %s: %v", IconError, ui.localization.GetText(KeyMergeFailed), err))
				return
			}
			ui.setNotification(fmt.Sprintf("%s %s%s%s", IconDone, savedPath, MiddleDotSeparator, humanize.Bytes(uint64(task.OutputSize))))
			ui.sendCompletionNotification(task, savedPath)
		})
	}()
}

// acquireServices marks a run as active and returns the services for it,
// rebuilding them first if the settings changed. It reports false while
// another run is active.
func (ui *RootUI) acquireServices() (*app.App, bool) {
	ui.svcMu.Lock()
	defer ui.svcMu.Unlock()

	if ui.running {
		return nil, false
	}
	if ui.stale || ui.services == nil {
		ui.rebuildServicesLocked()
	}
	ui.running = true
	return ui.services, true
}

func (ui *RootUI) releaseServices() {
	ui.svcMu.Lock()
	defer ui.svcMu.Unlock()
	ui.running = false
}

func (ui *RootUI) rebuildServicesLocked() {
	if ui.services != nil {
		_ = ui.services.Close()
	}

	cfg := ui.settings.Config()

	var saver delivery.Saver
	ui.dialogSaver = nil
	if ui.settings.GetAskWhereToSave() {
		ui.dialogSaver = NewDialogSaver(ui.window, cfg.DownloadDir, cfg.RevealOnComplete, ui.logger)
		saver = ui.dialogSaver
	}

	ui.services = app.New(cfg, ui.logger, saver)
	ui.services.Orchestrator.SetUpdateCallback(ui.onTaskUpdate)
	ui.stale = false
}

// savedPath returns where the last run delivered its file
func (ui *RootUI) savedPath(svc *app.App) string {
	ui.svcMu.Lock()
	defer ui.svcMu.Unlock()

	if ui.dialogSaver != nil && ui.services == svc {
		return ui.dialogSaver.LastPath
	}
	return svc.Saver.LastPath
}

// shutdown releases the engine workspace when the window closes
func (ui *RootUI) shutdown() {
	ui.svcMu.Lock()
	defer ui.svcMu.Unlock()

	if ui.services != nil {
		if err := ui.services.Close(); err != nil {
			ui.logger.Warnf("Failed to close services: %v", err)
		}
	}
}

// appendLog adds a line to the log view, keeping the last MaxLogLines
func (ui *RootUI) appendLog(msg string) {
	fyne.Do(func() {
		lines, _ := ui.logLines.Get()
		lines = append(lines, cleanInput(msg))
		if len(lines) > MaxLogLines {
			lines = lines[len(lines)-MaxLogLines:]
		}
		_ = ui.logLines.Set(lines)
		ui.logList.ScrollToBottom()
	})
}

// setNotification shows a message under the form. Must run on the UI goroutine.
func (ui *RootUI) setNotification(message string) {
	ui.notificationLabel.SetText(message)
	ui.notificationContainer.Show()
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.settings, ui.localization, ui.window, ui.onSettingsSaved).Show()
}

// onSettingsSaved applies language changes and schedules a service rebuild
func (ui *RootUI) onSettingsSaved() {
	ui.svcMu.Lock()
	ui.stale = true
	ui.svcMu.Unlock()

	if lang := ui.settings.GetLanguage(); lang != ui.localization.GetCurrentLanguage() {
		ui.onLanguageChange(lang)
	}
	if err := platform.CreateDirectoryIfNotExists(ui.settings.GetDownloadDirectory()); err != nil {
		ui.logger.Warnf("Failed to ensure download directory: %v", err)
	}
}

// debouncedUIUpdate reports whether a status refresh for task is due.
// State changes always are; progress-only updates are rate limited.
func (ui *RootUI) debouncedUIUpdate(task *model.MergeTask) bool {
	ui.uiUpdateMutex.Lock()
	defer ui.uiUpdateMutex.Unlock()

	now := time.Now()
	if task.State == ui.lastState && now.Sub(ui.lastUIUpdate) < UIUpdateDebounce {
		return false
	}

	ui.lastState = task.State
	ui.lastUIUpdate = now
	return true
}

// onTaskUpdate handles run updates from the orchestrator
func (ui *RootUI) onTaskUpdate(task *model.MergeTask) {
	if !ui.debouncedUIUpdate(task) {
		return
	}

	status := formatStatus(task)
	fyne.Do(func() {
		ui.statusLabel.SetText(status)
	})
}

func formatStatus(task *model.MergeTask) string {
	parts := []string{
		task.GetDisplayTitle(),
		task.State.String(),
		fmt.Sprintf(ProgressLabelFormat, task.Percent),
	}
	if task.State.IsFinished() {
		parts = append(parts, task.GetElapsedString())
	}
	if task.LastError != "" {
		parts = append(parts, task.LastError)
	}
	return strings.Join(parts, MiddleDotSeparator)
}

// sendCompletionNotification sends a system notification for a finished merge
func (ui *RootUI) sendCompletionNotification(task *model.MergeTask, savedPath string) {
	if task.State != model.RunStateDone {
		return
	}

	fyne.CurrentApp().SendNotification(&fyne.Notification{
		Title:   ui.localization.GetText(KeyMergeCompleted),
		Content: task.GetDisplayTitle(),
	})

	if savedPath != "" {
		ui.showToastNotification(task, savedPath)
	}
}

// showToastNotification shows an in-app toast with reveal and open actions
func (ui *RootUI) showToastNotification(task *model.MergeTask, savedPath string) {
	titleLabel := widget.NewLabel(ui.localization.GetText(KeyMergeCompleted))
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	messageLabel := widget.NewLabel(task.GetDisplayTitle())
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	revealBtn := widget.NewButton(ui.localization.GetText(KeyReveal), func() {
		ui.onRevealFile(savedPath)
	})
	revealBtn.Importance = widget.HighImportance

	openBtn := widget.NewButton(ui.localization.GetText(KeyOpen), func() {
		ui.onOpenFile(savedPath)
	})

	var toastPopup *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		if toastPopup != nil {
			toastPopup.Hide()
		}
	})
	closeBtn.Importance = widget.LowImportance

	content := container.NewVBox(
		container.NewBorder(nil, nil, titleLabel, closeBtn),
		messageLabel,
		container.NewHBox(revealBtn, openBtn),
	)

	toastPopup = widget.NewPopUp(content, ui.window.Canvas())

	// Position in top-right corner
	canvasSize := ui.window.Canvas().Size()
	toastSize := fyne.NewSize(ToastWidth, ToastHeight)
	toastPopup.Resize(toastSize)
	toastPopup.Move(fyne.NewPos(canvasSize.Width-toastSize.Width-ToastMargin, ToastMargin))
	toastPopup.Show()

	time.AfterFunc(ToastAutoHide, func() {
		fyne.Do(toastPopup.Hide)
	})
}

// onRevealFile reveals a saved file in the system file manager
func (ui *RootUI) onRevealFile(filePath string) {
	if err := platform.OpenFileInManager(filePath); err != nil {
		ui.logger.Errorf("Error revealing file %s: %v", filePath, err)
		ui.setNotification(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

// onOpenFile opens a saved file with the default application
func (ui *RootUI) onOpenFile(filePath string) {
	if err := platform.OpenFileWithDefaultApp(filePath); err != nil {
		ui.logger.Errorf("Error opening file %s: %v", filePath, err)
		ui.setNotification(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}
