// Command inspector is a desktop review tool for the candidate processor:
// it runs a file of captured request pairs through the differ,
// classifier and template engine, shows result counts, and previews the
// most recent valid swap template.
package main

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"

	"github.com/saiid2001/vsf-analyzer/internal/config"
	"github.com/saiid2001/vsf-analyzer/internal/inspectorui"
	"github.com/saiid2001/vsf-analyzer/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Path)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	a := app.NewWithID("io.vsfanalyzer.inspector")
	a.Settings().SetTheme(theme.DarkTheme())
	w := a.NewWindow("Candidate Inspector")

	inspectorSection, _, _ := inspectorui.BuildInspectorSection(a, w, logger)

	tabs := container.NewAppTabs(
		container.NewTabItem("Review", inspectorSection),
	)

	const (
		width  = 700
		height = 560
	)
	w.SetContent(tabs)
	w.Resize(fyne.NewSize(width, height))
	w.CenterOnScreen()
	w.ShowAndRun()
}
