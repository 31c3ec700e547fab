package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/ytget/stream-merger/internal/config"
	"github.com/ytget/stream-merger/internal/logger"
	"github.com/ytget/stream-merger/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.stream-merger"
	AppName = "Stream Merger"

	WindowWidth  = 820
	WindowHeight = 560
)

func main() {
	fmt.Printf("%s v%s starting...\n", AppName, version)

	// Desktop log level comes from the environment; the rest lives in preferences
	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	log := logger.NewLogger(config.FromEnv().LogLevel)

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	ui.NewRootUI(myWindow, myApp, log)

	myWindow.ShowAndRun()
}
