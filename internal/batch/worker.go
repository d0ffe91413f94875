// Package batch drives the candidate processor over many pairs
// concurrently, adapted from the worker-pool and line-reader idioms used
// elsewhere in this codebase for target-driven scanning.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/saiid2001/vsf-analyzer/internal/logging"
	"github.com/saiid2001/vsf-analyzer/internal/queue"
)

// ProcessPairFunc processes one candidate pair, returning an error only
// for genuinely unexpected failures; candidate.Process itself encodes its
// outcome in a result code rather than an error.
type ProcessPairFunc func(ctx context.Context, pair queue.CandidatePair) error

// callProcessFn runs processFn with a panic recovered into an error, so a
// single malformed candidate cannot take down its worker goroutine. The
// upstream teacher loop this is adapted from has no such boundary.
func callProcessFn(ctx context.Context, pair queue.CandidatePair, processFn ProcessPairFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing candidate %d: %v", pair.CandidateID, r)
		}
	}()
	return processFn(ctx, pair)
}

// StartWorkers starts the given number of workers pulling candidate pairs
// from pairsCh and running processFn on each. Returns a channel that is
// closed once every worker has exited (context cancellation or a closed
// input channel).
func StartWorkers(ctx context.Context, pairsCh <-chan queue.CandidatePair, workers int, processFn ProcessPairFunc, logger *logging.Logger) <-chan struct{} {
	doneCh := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case pair, ok := <-pairsCh:
					if !ok {
						return
					}
					if err := callProcessFn(ctx, pair, processFn); err != nil {
						logger.Error.Printf("processing candidate %d: %v", pair.CandidateID, err)
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	return doneCh
}
