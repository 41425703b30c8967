package gui

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/judica-dev/judica/internal/client"
	"github.com/judica-dev/judica/internal/config"
	"github.com/judica-dev/judica/internal/export"
	"github.com/judica-dev/judica/internal/form"
	"github.com/judica-dev/judica/internal/ingestion"
	"github.com/judica-dev/judica/internal/models"
)

const (
	submitLabel  = "Evaluate with Judica"
	loadingLabel = "Evaluating…"
)

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	configPath string
	client     atomic.Pointer[client.Client]
	form       *form.Form

	// UI Components
	categorySelect *widget.Select
	textEntry      *widget.Entry
	submitBtn      *widget.Button
	loadFileBtn    *widget.Button
	progressBar    *widget.ProgressBarInfinite
	errorLabel     *widget.Label
	errorPanel     *widget.Card
	resultPanel    *widget.Card
	categoryValue  *widget.Label
	strengthValue  *widget.Label
	rationaleValue *widget.Label
	scoresTable    *widget.Table
	exportBtn      *widget.Button
	rawLabel       *widget.Label
	rawPanel       *widget.Card

	view models.ResultView
}

// NewApp creates a new GUI application
func NewApp() *App {
	configPath, err := config.GetConfigPath()
	if err != nil {
		log.Printf("Failed to resolve config path: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	return newApp(app.New(), cfg, configPath)
}

// newApp builds the window on fyneApp. The form's change callback is
// registered only once every widget exists.
func newApp(fyneApp fyne.App, cfg *config.Config, configPath string) *App {
	w := fyneApp.NewWindow("Judica")
	w.Resize(fyne.NewSize(900, 760))

	guiApp := &App{
		fyneApp:    fyneApp,
		mainWindow: w,
		config:     cfg,
		configPath: configPath,
	}
	guiApp.client.Store(client.New(cfg.ServerURL, nil))
	guiApp.form = form.New(form.SubmitterFunc(guiApp.evaluate))

	guiApp.setupUI()

	guiApp.form.OnChange(func(s form.State) {
		fyne.Do(func() { guiApp.render(s) })
	})
	guiApp.render(guiApp.form.State())

	return guiApp
}

// Run starts the GUI application
func (a *App) Run() {
	a.mainWindow.ShowAndRun()
}

// evaluate sends the request through the currently configured server
func (a *App) evaluate(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
	return a.client.Load().Evaluate(ctx, req)
}

// setupUI initializes all UI components
func (a *App) setupUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("Evaluate", a.createEvaluateTab()),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)

	a.mainWindow.SetContent(tabs)
}

// createEvaluateTab creates the petition form and its three output panels
func (a *App) createEvaluateTab() fyne.CanvasObject {
	labels := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		labels[i] = c.Label()
	}
	a.categorySelect = widget.NewSelect(labels, func(label string) {
		if c, ok := models.CategoryFromLabel(label); ok {
			a.form.SetCategory(c)
		}
	})
	a.categorySelect.SetSelected(a.form.State().Category.Label())

	a.textEntry = widget.NewMultiLineEntry()
	a.textEntry.SetPlaceHolder("Paste your petition cover letter, RFE response, or a detailed summary here...")
	a.textEntry.SetMinRowsVisible(12)
	a.textEntry.Wrapping = fyne.TextWrapWord
	a.textEntry.OnChanged = a.form.SetText

	a.loadFileBtn = widget.NewButton("Load Document...", a.handleLoadFile)
	a.submitBtn = widget.NewButton(submitLabel, a.handleSubmit)
	a.submitBtn.Importance = widget.HighImportance

	a.progressBar = widget.NewProgressBarInfinite()
	a.progressBar.Stop()
	a.progressBar.Hide()

	disclaimer := widget.NewLabel("Do not paste confidential info you are not comfortable sharing with an AI model. " +
		"This tool is for feedback only and does not replace a licensed attorney.")
	disclaimer.Wrapping = fyne.TextWrapWord
	disclaimer.Importance = widget.LowImportance

	inputSection := container.NewVBox(
		widget.NewForm(widget.NewFormItem("Category", a.categorySelect)),
		widget.NewLabel("Petition letter / summary"),
		a.textEntry,
		disclaimer,
		container.NewHBox(a.submitBtn, a.loadFileBtn),
		a.progressBar,
	)

	// Error panel
	a.errorLabel = widget.NewLabel("")
	a.errorLabel.Wrapping = fyne.TextWrapWord
	a.errorLabel.Importance = widget.DangerImportance
	a.errorPanel = widget.NewCard("Error", "", a.errorLabel)

	// Result panel
	a.categoryValue = widget.NewLabel("")
	a.strengthValue = widget.NewLabel("")
	a.strengthValue.TextStyle = fyne.TextStyle{Bold: true}
	a.rationaleValue = widget.NewLabel("")
	a.rationaleValue.Wrapping = fyne.TextWrapWord

	a.scoresTable = widget.NewTable(
		func() (int, int) {
			return len(a.view.Scores) + 1, 2 // +1 for header
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				headers := []string{"Criterion", "Score (0-10)"}
				label.SetText(headers[id.Col])
				label.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			label.TextStyle = fyne.TextStyle{}
			if id.Row-1 < len(a.view.Scores) {
				score := a.view.Scores[id.Row-1]
				if id.Col == 0 {
					label.SetText(score.Label)
				} else {
					label.SetText(score.Value)
				}
			}
		},
	)
	a.scoresTable.SetColumnWidth(0, 260)
	a.scoresTable.SetColumnWidth(1, 120)

	a.exportBtn = widget.NewButton("Export to Excel", a.handleExport)

	scores := container.NewGridWrap(fyne.NewSize(400, 200), a.scoresTable)
	a.resultPanel = widget.NewCard("Judica's Evaluation", "", container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Category", a.categoryValue),
			widget.NewFormItem("Overall strength", a.strengthValue),
		),
		widget.NewLabel("Criterion scores (0-10):"),
		scores,
		widget.NewLabelWithStyle("Rationale", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.rationaleValue,
		a.exportBtn,
	))

	// Raw panel
	a.rawLabel = widget.NewLabel("")
	a.rawLabel.TextStyle = fyne.TextStyle{Monospace: true}
	a.rawLabel.Wrapping = fyne.TextWrapWord
	a.rawPanel = widget.NewCard("", "Model did not return clean JSON. Raw output:", a.rawLabel)

	footer := widget.NewLabel("This is an experimental tool. It does not provide legal advice and does not predict " +
		"case outcomes. Always consult a qualified immigration attorney for your petition strategy.")
	footer.Wrapping = fyne.TextWrapWord
	footer.Importance = widget.LowImportance

	return container.NewVScroll(
		container.NewVBox(
			inputSection,
			widget.NewSeparator(),
			a.errorPanel,
			a.resultPanel,
			a.rawPanel,
			widget.NewSeparator(),
			footer,
		),
	)
}

// render applies a form snapshot to the widgets. Must run on the UI goroutine.
func (a *App) render(s form.State) {
	if s.CanSubmit() {
		a.submitBtn.Enable()
	} else {
		a.submitBtn.Disable()
	}

	if s.Loading {
		a.submitBtn.SetText(loadingLabel)
		a.loadFileBtn.Disable()
		a.progressBar.Show()
		a.progressBar.Start()
	} else {
		a.submitBtn.SetText(submitLabel)
		a.loadFileBtn.Enable()
		a.progressBar.Stop()
		a.progressBar.Hide()
	}

	a.errorPanel.Hide()
	a.resultPanel.Hide()
	a.rawPanel.Hide()

	switch s.Panel() {
	case form.PanelError:
		message := "Error: " + s.Error
		if s.Detail != "" {
			message += "\n" + s.Detail
		}
		a.errorLabel.SetText(message)
		a.errorPanel.Show()
	case form.PanelResult:
		a.view = s.ResultView()
		a.categoryValue.SetText(a.view.Category)
		a.strengthValue.SetText(a.view.OverallStrength)
		a.rationaleValue.SetText(a.view.VerdictRationale)
		a.scoresTable.Refresh()
		a.resultPanel.Show()
	case form.PanelRaw:
		a.rawLabel.SetText(s.RawText())
		a.rawPanel.Show()
	}
}

// handleSubmit starts an evaluation in the background
func (a *App) handleSubmit() {
	if !a.form.CanSubmit() {
		return
	}

	go func() {
		if err := a.form.Submit(context.Background()); err != nil {
			log.Printf("Submit skipped: %v", err)
		}
	}()
}

// handleLoadFile reads a petition document into the text entry
func (a *App) handleLoadFile() {
	fileDialog := dialog.NewFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		name := uc.URI().Name()
		data, err := io.ReadAll(uc)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read %s: %w", name, err), a.mainWindow)
			return
		}

		go func() {
			text, err := ingestion.ExtractText(context.Background(), name, data)

			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(fmt.Errorf("could not read %s: %w", name, err), a.mainWindow)
					return
				}
				a.textEntry.SetText(text)
			})
		}()
	}, a.mainWindow)
	fileDialog.SetFilter(storage.NewExtensionFileFilter(ingestion.SupportedExtensions))
	fileDialog.Show()
}

// handleExport saves the current result as an Excel workbook
func (a *App) handleExport() {
	state := a.form.State()
	if state.Panel() != form.PanelResult {
		dialog.ShowError(fmt.Errorf("no result to export"), a.mainWindow)
		return
	}

	timestamp := time.Now().Format("2006-01-02_150405")
	defaultName := fmt.Sprintf("Judica_Evaluation_%s.xlsx", timestamp)

	saveDialog := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}

		a.exportBtn.Disable()
		go func() {
			defer uc.Close()

			data, err := a.client.Load().Export(context.Background(), state.Result)
			if err == nil {
				_, err = uc.Write(data)
			}

			fyne.Do(func() {
				a.exportBtn.Enable()
				if err != nil {
					dialog.ShowError(fmt.Errorf("failed to export: %w", err), a.mainWindow)
					return
				}
				dialog.ShowInformation("Success", "Evaluation exported to "+filepath.Base(uc.URI().Path()), a.mainWindow)
			})
		}()
	}, a.mainWindow)
	saveDialog.SetFileName(defaultName)
	saveDialog.SetFilter(storage.NewExtensionFileFilter([]string{filepath.Ext(export.Filename)}))
	saveDialog.Show()
}

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	serverEntry := widget.NewEntry()
	serverEntry.SetText(a.config.ServerURL)
	serverEntry.SetPlaceHolder("http://localhost:8080")

	settingsForm := widget.NewForm(
		widget.NewFormItem("Judica Server URL", serverEntry),
	)

	saveBtn := widget.NewButton("Save Settings", func() {
		if err := a.saveServerURL(serverEntry.Text); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Settings saved successfully", a.mainWindow)
	})

	return container.NewVBox(
		settingsForm,
		container.NewHBox(saveBtn),
	)
}

// saveServerURL stores the server URL in the config file and points the
// client at it. Other settings in the file are left as they are.
func (a *App) saveServerURL(serverURL string) error {
	if a.configPath == "" {
		return fmt.Errorf("no config file path available")
	}
	if err := config.UpdateFile(a.configPath, func(c *config.Config) {
		c.ServerURL = serverURL
	}); err != nil {
		return err
	}

	a.config.ServerURL = serverURL
	a.client.Store(client.New(serverURL, nil))
	return nil
}
