package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx is canceled.
// Task errors are logged, not fatal; the next tick still fires.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	if interval < time.Minute {
		log.Printf("[schedule:%s] interval %s too small, using 1m", name, interval)
		interval = time.Minute
	}

	run := func() {
		started := time.Now()
		if err := task(ctx); err != nil {
			log.Printf("[schedule:%s] error: %v", name, err)
			return
		}
		log.Printf("[schedule:%s] done in %s", name, time.Since(started).Round(time.Second))
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
