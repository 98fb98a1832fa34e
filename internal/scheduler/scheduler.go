package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

type Task func(ctx context.Context) error

// Every runs the task immediately and then on every tick until the context
// is done. Ticks that arrive while a previous invocation is still running
// are dropped so a slow pipeline run never stacks up behind itself.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	var busy atomic.Bool

	run := func() {
		if !busy.CompareAndSwap(false, true) {
			log.Printf("[%s] previous run still in progress, skipping tick", name)
			return
		}
		defer busy.Store(false)
		if err := task(ctx); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}
	}

	// run immediately
	go run()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
