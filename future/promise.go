package future

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/flowstate-dev/flowstate/try"
)

// Promise is the write-only side of an asynchronous computation.
//
// A promise can only be fulfilled once; later calls to Success, Failure, or
// Complete are ignored. Fulfillment is safe from any goroutine and unblocks
// every waiter on the associated future. The promise holds a reference to the
// future, not the other way around, so futures can be passed around without
// exposing the ability to complete them.
type Promise[T any] struct {
	future   *Future[T]
	canceled *atomic.Bool
}

func newPromise[T any](fut *Future[T]) *Promise[T] {
	return &Promise[T]{
		future:   fut,
		canceled: atomic.NewBool(false),
	}
}

// IsCancelled reports whether the promise has been marked canceled. Once
// canceled, a promise stays canceled.
func (p *Promise[T]) IsCancelled() bool {
	return p.canceled.Load()
}

// Cancel marks the promise as canceled and fails the future with the given
// error. A nil error fails it with a generic cancellation error.
func (p *Promise[T]) Cancel(err error) {
	if p.canceled.CompareAndSwap(false, true) {
		if err == nil {
			err = errPromiseCanceled
		}

		p.Failure(err)
	}
}

// Success fulfills the promise with a value. Only the first fulfillment of a
// promise takes effect.
func (p *Promise[T]) Success(value T) {
	p.fulfill(try.Success(value))
}

// Failure fulfills the promise with an error. Only the first fulfillment of a
// promise takes effect.
func (p *Promise[T]) Failure(err error) {
	p.fulfill(try.Failure[T](err))
}

// Complete fulfills the promise from a conventional (value, error) pair.
func (p *Promise[T]) Complete(value T, err error) {
	p.fulfill(try.Of(value, err))
}

// fulfill stores the result, broadcasts completion by closing resultReady,
// and invokes registered callbacks. sync.Once makes it idempotent; the mutex
// is held while closing the channel so callback registration cannot race with
// settlement.
func (p *Promise[T]) fulfill(result try.Try[T]) {
	p.future.once.Do(func() {
		p.future.result = result

		p.future.mu.Lock()

		close(p.future.resultReady)

		successCallbacks := p.future.successCallbacks
		errorCallbacks := p.future.errorCallbacks
		resultCallbacks := p.future.resultCallbacks

		// Callbacks fire at most once; dropping the slices also lets the
		// GC reclaim whatever they capture.
		p.future.successCallbacks = nil
		p.future.errorCallbacks = nil
		p.future.resultCallbacks = nil

		p.future.mu.Unlock()

		for _, callback := range resultCallbacks {
			invokeCallback("OnResult", callback, result)
		}

		if result.IsSuccess() {
			for _, callback := range successCallbacks {
				invokeCallback("OnSuccess", callback, result.Value)
			}
		} else {
			for _, callback := range errorCallbacks {
				invokeCallback("OnError", callback, result.Error)
			}
		}
	})
}

// recoverIntoPromise converts a panic in a producer goroutine into a failed
// future instead of crashing the process.
func recoverIntoPromise[T any](p *Promise[T]) {
	if r := recover(); r != nil {
		if err, ok := r.(error); ok {
			p.Failure(fmt.Errorf("%w: %w", errFuturePanic, err))
		} else {
			p.Failure(fmt.Errorf("%w: %v", errFuturePanic, r))
		}
	}
}
