package unqualify

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/unqualify/internal/store"
)

// TransformFilesParallel rewrites files using a three-phase parallel
// pipeline:
//
//	Phase A (serial):   Filters, read, ledger lookup.
//	Phase B (parallel): Parse, rewrite and hook via worker pool (each unit
//	                    gets its own parser, tree and Risor VM).
//	Phase C (serial):   Write files back, buffer ledger records, commit the
//	                    buffer in one transaction.
func (e *Engine) TransformFilesParallel(ctx context.Context, paths []string) ([]*FileResult, error) {
	var (
		results []*FileResult
		errs    []error
	)

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, path := range paths {
		item, res, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			if res != nil {
				results = append(results, res)
			}
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return results, aggregate(errs)
	}

	// ---- Phase B: Parallel transforms ----
	numWorkers := min(runtime.NumCPU(), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	resultCh := make(chan *FileResult, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				resultCh <- e.transformFile(ctx, item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	var batch *store.BatchedStore
	var ds store.DataStore
	if e.store != nil {
		batch = store.NewBatchedStore(e.store)
		ds = batch
	}
	for res := range resultCh {
		if err := e.commitFile(res, ds); err != nil {
			errs = append(errs, err)
		}
		results = append(results, res)
	}
	if batch != nil {
		if err := e.store.CommitBatch(batch); err != nil {
			errs = append(errs, fmt.Errorf("commit ledger: %w", err))
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, aggregate(errs)
}
