// Package inspectorui implements the review tool's user interface: a
// section for running the candidate processor over a batch of captured
// request pairs and inspecting the resulting swap templates.
package inspectorui

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/saiid2001/vsf-analyzer/internal/batch"
	"github.com/saiid2001/vsf-analyzer/internal/candidate"
	"github.com/saiid2001/vsf-analyzer/internal/classifier"
	"github.com/saiid2001/vsf-analyzer/internal/config"
	"github.com/saiid2001/vsf-analyzer/internal/logging"
	"github.com/saiid2001/vsf-analyzer/internal/patterns"
	"github.com/saiid2001/vsf-analyzer/internal/queue"
)

// BuildInspectorSection builds the candidate-review UI section and returns
// it along with the running flag and cancel function, mirroring the
// scanner section's start/stop control flow.
func BuildInspectorSection(a fyne.App, w fyne.Window, logger *logging.Logger) (fyne.CanvasObject, *atomic.Bool, *context.CancelFunc) {
	var pairsFile string
	var configFile = "config.yaml"

	isRunning := &atomic.Bool{}
	var cancelRun context.CancelFunc

	pairsLabel := widget.NewLabel("Candidate pairs: (not selected)")
	selectPairsBtn := newSelectPairsButton(w, &pairsFile, pairsLabel)

	maxThreads := runtime.NumCPU()
	threadsSelect := newThreadsSelect(maxThreads)

	previewBinding := binding.NewString()
	_ = previewBinding.Set("")
	previewLabel := widget.NewLabelWithData(previewBinding)
	previewLabel.Wrapping = fyne.TextWrapWord

	statsBinding := binding.NewString()
	_ = statsBinding.Set(initialStatsText())
	statsLabel := widget.NewLabelWithData(statsBinding)

	startBtn := widget.NewButton("Start", nil)
	stopBtn := widget.NewButton("Stop", nil)
	stopBtn.Disable()

	startBtn.OnTapped = func() {
		handleStartButtonClick(w, pairsFile, configFile, threadsSelect, statsBinding, previewBinding, isRunning, startBtn, stopBtn, &cancelRun, logger)
	}

	stopBtn.OnTapped = func() {
		if cancelRun != nil {
			cancelRun()
		}
	}

	section := container.NewVBox(
		widget.NewLabel("Candidate Review Section"),
		selectPairsBtn, pairsLabel,
		widget.NewForm(
			widget.NewFormItem("Number of workers", threadsSelect),
		),
		container.NewHBox(startBtn, stopBtn),
		statsLabel,
		widget.NewSeparator(),
		widget.NewLabel("Last template preview:"),
		previewLabel,
	)

	return section, isRunning, &cancelRun
}

func newSelectPairsButton(w fyne.Window, pairsFile *string, label *widget.Label) *widget.Button {
	return widget.NewButton("Select candidate pairs (.jsonl)", func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			*pairsFile = reader.URI().Path()
			label.SetText("Candidate pairs: " + *pairsFile)
		}, w)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".jsonl"}))
		fd.Show()
	})
}

func newThreadsSelect(maxThreads int) *widget.Select {
	options := []string{}
	for i := 1; i <= maxThreads; i++ {
		options = append(options, strconv.Itoa(i))
	}
	selectWidget := widget.NewSelect(options, nil)
	selectWidget.SetSelected(strconv.Itoa(maxThreads))
	return selectWidget
}

func initialStatsText() string {
	return "Statistics:\nPairs loaded: 0\nProcessed: 0\nValid: 0\nInsufficient: 0\nNo variables: 0\nErrored: 0"
}

func handleStartButtonClick(
	w fyne.Window,
	pairsFile, configFile string,
	threadsSelect *widget.Select,
	statsBinding, previewBinding binding.String,
	isRunning *atomic.Bool,
	startBtn, stopBtn *widget.Button,
	cancelRun *context.CancelFunc,
	logger *logging.Logger,
) {
	if isRunning.Load() {
		dialog.ShowInformation("Already running", "A review run is already in progress", w)
		return
	}
	if pairsFile == "" {
		dialog.ShowError(fmt.Errorf("candidate pairs file not selected"), w)
		return
	}

	workers, err := strconv.Atoi(threadsSelect.Selected)
	if err != nil || workers <= 0 {
		dialog.ShowError(fmt.Errorf("invalid worker count"), w)
		return
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load config: %w", err), w)
		return
	}

	rules, err := patterns.LoadRules(
		cfg.Rules.HeaderIgnore,
		cfg.Rules.CookieIgnore,
		cfg.Rules.QueryNameIgnore,
		cfg.Rules.VariableNameIgnore,
		cfg.Rules.VariableNameSwap,
		cfg.Rules.VariableValueSwap,
	)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load rules: %w", err), w)
		return
	}

	isRunning.Store(true)
	startBtn.Disable()
	stopBtn.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	*cancelRun = cancel

	go runReview(ctx, pairsFile, workers, cfg, rules, statsBinding, previewBinding, isRunning, startBtn, stopBtn, logger)
}

func runReview(
	ctx context.Context,
	pairsFile string,
	workers int,
	cfg *config.Config,
	rules *patterns.Rules,
	statsBinding, previewBinding binding.String,
	isRunning *atomic.Bool,
	startBtn, stopBtn *widget.Button,
	logger *logging.Logger,
) {
	var loaded, processed, valid, insufficient, noVariables, errored int64

	defer func() {
		isRunning.Store(false)
		startBtn.Enable()
		stopBtn.Disable()
		_ = statsBinding.Set(formatStats(loaded, processed, valid, insufficient, noVariables, errored))
	}()

	pairsCh, errCh := batch.ReadCandidatePairsFile(ctx, pairsFile)
	countedCh := make(chan queue.CandidatePair)
	go func() {
		defer close(countedCh)
		for pair := range pairsCh {
			atomic.AddInt64(&loaded, 1)
			select {
			case <-ctx.Done():
				return
			case countedCh <- pair:
			}
		}
	}()

	analysisCfg, err := candidateConfig(cfg)
	if err != nil {
		logger.Error.Printf("building analysis config: %v", err)
		return
	}

	processFn := func(ctx context.Context, pair queue.CandidatePair) error {
		result := candidate.Process(candidate.Input{
			CandidateID: pair.CandidateID,
			AccountIDA:  pair.AccountIDA,
			AccountIDB:  pair.AccountIDB,
			RequestA:    pair.RequestA,
			RequestB:    pair.RequestB,
			IdentityA:   classifier.SessionIdentity{},
			IdentityB:   classifier.SessionIdentity{},
		}, rules, analysisCfg)

		atomic.AddInt64(&processed, 1)
		switch result.Code {
		case candidate.ResultValid:
			atomic.AddInt64(&valid, 1)
			if result.Template != nil {
				_ = previewBinding.Set(result.Template.Preview(false))
			}
		case candidate.ResultInsufficientVariation:
			atomic.AddInt64(&insufficient, 1)
		case candidate.ResultNoVariables:
			atomic.AddInt64(&noVariables, 1)
		case candidate.ResultErrored:
			atomic.AddInt64(&errored, 1)
			logger.Error.Printf("candidate %d: %s", pair.CandidateID, result.Note)
		}
		return nil
	}

	done := batch.StartWorkers(ctx, countedCh, workers, processFn, logger)

	select {
	case <-ctx.Done():
	case <-done:
	}

	for err := range errCh {
		logger.Error.Printf("reading candidate pairs: %v", err)
	}
}

func candidateConfig(cfg *config.Config) (candidate.Config, error) {
	nameInclude, err := optionalPatternList(cfg.Analysis.SwapNameIncludeFile)
	if err != nil {
		return candidate.Config{}, err
	}
	nameExclude, err := optionalPatternList(cfg.Analysis.SwapNameExcludeFile)
	if err != nil {
		return candidate.Config{}, err
	}
	valueInclude, err := optionalPatternList(cfg.Analysis.SwapValueIncludeFile)
	if err != nil {
		return candidate.Config{}, err
	}
	valueExclude, err := optionalPatternList(cfg.Analysis.SwapValueExcludeFile)
	if err != nil {
		return candidate.Config{}, err
	}

	return candidate.Config{
		UnifyVariableNames:   cfg.Analysis.UnifyVariableNames,
		MaxSwaps:             cfg.Analysis.MaxSwaps,
		Seed:                 cfg.Analysis.Seed,
		SwapLocationsInclude: toLocationSet(cfg.Analysis.SwapLocationsInclude),
		SwapLocationsExclude: toLocationSet(cfg.Analysis.SwapLocationsExclude),
		SwapNameInclude:      nameInclude,
		SwapNameExclude:      nameExclude,
		SwapValueInclude:     valueInclude,
		SwapValueExclude:     valueExclude,
	}, nil
}

// optionalPatternList loads path as a pattern list, or returns nil (match
// nothing) when path is empty.
func optionalPatternList(path string) (*patterns.List, error) {
	if path == "" {
		return nil, nil
	}
	return patterns.FromFile(path)
}

func toLocationSet(locations []string) map[string]bool {
	if len(locations) == 0 {
		return nil
	}
	set := make(map[string]bool, len(locations))
	for _, loc := range locations {
		set[loc] = true
	}
	return set
}

func formatStats(loaded, processed, valid, insufficient, noVariables, errored int64) string {
	return fmt.Sprintf(
		"Statistics:\nPairs loaded: %d\nProcessed: %d\nValid: %d\nInsufficient: %d\nNo variables: %d\nErrored: %d",
		loaded, processed, valid, insufficient, noVariables, errored,
	)
}
