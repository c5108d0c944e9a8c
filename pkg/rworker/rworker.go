// Package rworker runs jobs on their own goroutines, bounded by a shared
// slot channel.
package rworker

import (
	"context"
	"sync"
)

// Job schedules fn, first acquiring a slot from rate. The first error is
// kept in errCh; later ones are dropped. A cancelled context releases the
// job without running fn.
func Job(ctx context.Context, wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case rate <- struct{}{}:
		case <-ctx.Done():
			select {
			case errCh <- ctx.Err():
			default:
			}
			return
		}
		defer func() { <-rate }()

		if err := fn(); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
}
