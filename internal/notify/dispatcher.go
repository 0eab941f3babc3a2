package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

const deliveryTimeout = 15 * time.Second

// AsyncDispatcher delivers each job on its own goroutine, detached from the
// request that produced it, retrying whole-call failures with linear backoff.
type AsyncDispatcher struct {
	notifier    Notifier
	maxAttempts int
	backoff     time.Duration
	wg          sync.WaitGroup
}

// NewAsyncDispatcher returns a dispatcher that tries each job up to maxAttempts times.
func NewAsyncDispatcher(n Notifier, maxAttempts int, backoff time.Duration) *AsyncDispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &AsyncDispatcher{notifier: n, maxAttempts: maxAttempts, backoff: backoff}
}

func (d *AsyncDispatcher) Dispatch(job Job) {
	if len(compactTokens(job.Tokens)) == 0 {
		log.Printf("[Notify] skipping %q: no push tokens", job.Message.Title)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(job)
	}()
}

func (d *AsyncDispatcher) run(job Job) {
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err := Deliver(ctx, d.notifier, job)
		cancel()
		if err == nil {
			return
		}

		log.Printf("[Notify] attempt %d/%d for %q failed: %v", attempt, d.maxAttempts, job.Message.Title, err)
		if attempt < d.maxAttempts {
			time.Sleep(d.backoff * time.Duration(attempt))
		}
	}
}

// Wait blocks until every dispatched job has finished.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
