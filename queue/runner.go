package queue

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultWorkers is the worker count used when the caller passes zero or a
// negative value.
const DefaultWorkers = 3

// Run processes every item with at most workers concurrent invocations of
// process and returns exactly one Outcome per item, index-aligned with items.
//
// Workers claim items through an atomic cursor, so each item is processed
// exactly once and each outcome lands in the slot of the item that produced
// it. process must not panic; it reports failure through its Outcome.
//
// Run blocks until all claimed items finish. Cancellation stops workers from
// claiming new items; items never claimed keep their zero Outcome.
func Run[T any](ctx context.Context, workers int, items []T, process func(context.Context, T) Outcome) []Outcome {
	outcomes := make([]Outcome, len(items))
	if len(items) == 0 {
		return outcomes
	}

	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				i := int(cursor.Add(1)) - 1
				if i >= len(items) {
					return
				}
				outcomes[i] = process(ctx, items[i])
			}
		}()
	}

	wg.Wait()
	return outcomes
}
