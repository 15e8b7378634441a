package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/entity"
)

// BatchItem is the outcome for one input of a batch run. Exactly one of
// Result/Err is meaningful; Index matches the input position and Input
// echoes the original payload so a failure record is self-contained.
type BatchItem struct {
	Index  int
	Input  BatchInput
	Result Result
	Err    error
}

// BatchOutcome preserves input order in Items.
type BatchOutcome struct {
	Items     []BatchItem
	Succeeded int
	Failed    int
	ElapsedMs int64
}

// BatchInput is one card image plus its parse hints.
type BatchInput struct {
	Image []byte
	Hints entity.Hints
}

// ProcessBatch runs every input through Process under bounded concurrency.
// One item's failure never aborts the batch; the outcome isolates each
// failure with its input index. Cancellation of ctx fails the remaining
// unstarted items with the context error.
func (o *Orchestrator) ProcessBatch(ctx context.Context, inputs []BatchInput, opts entity.ProcessingOptions) BatchOutcome {
	start := time.Now()
	outcome := BatchOutcome{Items: make([]BatchItem, len(inputs))}

	sem := make(chan struct{}, o.cfg.BatchConcurrency)
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(idx int, in BatchInput) {
			defer wg.Done()
			// never-started items stay idle
			idle := func(err error) BatchItem {
				return BatchItem{
					Index:  idx,
					Input:  in,
					Result: Result{State: constants.JobStateIdle},
					Err:    err,
				}
			}
			if err := ctx.Err(); err != nil {
				outcome.Items[idx] = idle(err)
				return
			}
			select {
			case <-ctx.Done():
				outcome.Items[idx] = idle(ctx.Err())
				return
			case sem <- struct{}{}:
				defer func() { <-sem }()
			}
			res, err := o.Process(ctx, in.Image, opts, in.Hints)
			outcome.Items[idx] = BatchItem{Index: idx, Input: in, Result: res, Err: err}
		}(i, in)
	}
	wg.Wait()

	for _, item := range outcome.Items {
		if item.Err != nil {
			outcome.Failed++
		} else {
			outcome.Succeeded++
		}
	}
	outcome.ElapsedMs = time.Since(start).Milliseconds()

	o.logger.Info("pipeline.batch.done",
		"total", len(inputs),
		"succeeded", outcome.Succeeded,
		"failed", outcome.Failed,
		"concurrency", o.cfg.BatchConcurrency,
		"elapsed_ms", outcome.ElapsedMs,
	)
	return outcome
}
