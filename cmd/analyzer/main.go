// Command analyzer is the batch driver: it consumes candidate request
// pairs from the candidate-pairs queue, runs each through the candidate
// processor, records the outcome in the task store, and republishes
// valid swap candidates to the swap-candidates queue for the downstream
// swap-execution worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/saiid2001/vsf-analyzer/internal/batch"
	"github.com/saiid2001/vsf-analyzer/internal/candidate"
	"github.com/saiid2001/vsf-analyzer/internal/classifier"
	"github.com/saiid2001/vsf-analyzer/internal/config"
	"github.com/saiid2001/vsf-analyzer/internal/constants"
	"github.com/saiid2001/vsf-analyzer/internal/logging"
	"github.com/saiid2001/vsf-analyzer/internal/patterns"
	"github.com/saiid2001/vsf-analyzer/internal/queue"
	"github.com/saiid2001/vsf-analyzer/internal/taskstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	workers := flag.Int("workers", 8, "number of concurrent candidate workers")
	migrateOnly := flag.Bool("migrate", false, "apply pending task-store migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Path)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if err := taskstore.Migrate(cfg.Database); err != nil {
		logger.Error.Fatalf("applying task-store migrations: %v", err)
	}
	if *migrateOnly {
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
		logger.Error.Fatalf("loading pattern rules: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := taskstore.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error.Fatalf("opening task store: %v", err)
	}
	defer store.Close()

	reader := queue.NewReader(cfg.Queue)
	defer reader.Close()
	writer := queue.NewWriter(cfg.Queue)
	defer writer.Close()

	workerID := uuid.NewString()
	analysisCfg, err := candidateConfig(cfg)
	if err != nil {
		logger.Error.Fatalf("building analysis config: %v", err)
	}

	pairsCh := make(chan queue.CandidatePair)
	go feedFromQueue(ctx, reader, pairsCh, logger)

	processFn := func(ctx context.Context, pair queue.CandidatePair) error {
		return processPair(ctx, pair, store, writer, rules, analysisCfg, workerID, logger)
	}

	done := batch.StartWorkers(ctx, pairsCh, *workers, processFn, logger)
	<-done
	logger.Info.Printf("analyzer shutting down")
}

func feedFromQueue(ctx context.Context, reader *queue.Reader, out chan<- queue.CandidatePair, logger *logging.Logger) {
	defer close(out)
	for {
		pair, err := reader.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error.Printf("reading candidate pair: %v", err)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case out <- pair:
		}
	}
}

func processPair(
	ctx context.Context,
	pair queue.CandidatePair,
	store *taskstore.Store,
	writer *queue.Writer,
	rules *patterns.Rules,
	analysisCfg candidate.Config,
	workerID string,
	logger *logging.Logger,
) error {
	taskID, err := store.Enqueue(ctx, pair.CandidateID)
	if err != nil {
		return err
	}

	budgetCtx, cancel := context.WithTimeout(ctx, constants.CandidateWallClockBudget)
	defer cancel()

	task, err := store.ClaimByID(budgetCtx, taskID, workerID)
	if err != nil {
		return err
	}
	if err := store.MarkProcessing(budgetCtx, task.ID); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = store.Complete(ctx, taskID, string(candidate.ResultErrored), fmt.Sprintf("panic: %v", r), "")
			panic(r)
		}
	}()

	result := candidate.Process(candidate.Input{
		CandidateID: pair.CandidateID,
		AccountIDA:  pair.AccountIDA,
		AccountIDB:  pair.AccountIDB,
		RequestA:    pair.RequestA,
		RequestB:    pair.RequestB,
		IdentityA:   classifier.SessionIdentity{},
		IdentityB:   classifier.SessionIdentity{},
	}, rules, analysisCfg)

	var templateHash string
	if result.Code == candidate.ResultValid && result.Template != nil {
		templateHash, err = result.Template.Hash()
		if err != nil {
			logger.Error.Printf("candidate %d: hashing template: %v", pair.CandidateID, err)
		}
		if err := writer.Publish(ctx, pair.CandidateID, result.Template.ToDict()); err != nil {
			logger.Error.Printf("candidate %d: publishing swap candidate: %v", pair.CandidateID, err)
		}
	}

	if err := store.Complete(budgetCtx, taskID, string(result.Code), result.Note, templateHash); err != nil {
		if budgetCtx.Err() != nil {
			_ = store.MarkTimedOut(ctx, taskID)
		}
		return err
	}

	logger.Info.Printf("candidate %d -> %s (%s)", pair.CandidateID, result.Code, time.Since(task.ClaimedAt))
	return nil
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
