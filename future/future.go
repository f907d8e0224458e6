// Package future provides a Future/Promise pair for asynchronous computations.
//
// A Future is the read-only side of a computation that settles exactly once
// with either a value or an error. The matching Promise is the write-only side
// used by the producer to complete it. Futures support blocking waits,
// context-aware waits, and non-blocking callbacks.
package future

import (
	"context"
	"sync"

	"github.com/flowstate-dev/flowstate/try"
)

// Future represents the eventual result of an asynchronous computation.
//
// A future settles exactly once. Await blocks until then; callbacks registered
// before settlement fire on settlement, callbacks registered after fire
// immediately (in their own goroutine).
type Future[T any] struct {
	once        sync.Once
	result      try.Try[T]
	resultReady chan struct{}

	mu               sync.Mutex
	successCallbacks []func(T)
	errorCallbacks   []func(error)
	resultCallbacks  []func(try.Try[T])
}

// New creates an unfulfilled Future together with the Promise that completes
// it. The promise side is separate so futures can be handed out without
// exposing the ability to settle them.
func New[T any]() (*Future[T], *Promise[T]) {
	fut := &Future[T]{
		resultReady: make(chan struct{}),
	}

	return fut, newPromise(fut)
}

// Go runs f in a new goroutine and returns a future for its result. Panics in
// f are recovered and surface as a failed future.
func Go[T any](f func() (T, error)) *Future[T] {
	fut, promise := New[T]()

	go func() {
		defer recoverIntoPromise(promise)

		promise.Complete(f())
	}()

	return fut
}

// GoContext runs f in a new goroutine with the given context and returns a
// future for its result. Panics in f are recovered and surface as a failed
// future.
func GoContext[T any](ctx context.Context, f func(ctx context.Context) (T, error)) *Future[T] {
	fut, promise := New[T]()

	go func() {
		defer recoverIntoPromise(promise)

		promise.Complete(f(ctx))
	}()

	return fut
}

// Await blocks until the future settles and returns its result.
func (f *Future[T]) Await() (T, error) { //nolint:ireturn
	<-f.resultReady

	return f.result.Get()
}

// AwaitContext blocks until the future settles or the context is done,
// whichever happens first. When the context wins, the underlying computation
// keeps running; only the wait is abandoned.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) { //nolint:ireturn
	select {
	case <-f.resultReady:
		return f.result.Get()
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// IsCompleted reports whether the future has settled. It never blocks.
func (f *Future[T]) IsCompleted() bool {
	select {
	case <-f.resultReady:
		return true
	default:
		return false
	}
}

// OnSuccess registers a callback invoked with the value if the future settles
// successfully. The callback runs in its own goroutine.
func (f *Future[T]) OnSuccess(callback func(T)) {
	f.mu.Lock()

	if f.settledLocked() {
		result := f.result
		f.mu.Unlock()

		if result.IsSuccess() {
			invokeCallback("OnSuccess", callback, result.Value)
		}

		return
	}

	f.successCallbacks = append(f.successCallbacks, callback)
	f.mu.Unlock()
}

// OnError registers a callback invoked with the error if the future fails.
// The callback runs in its own goroutine.
func (f *Future[T]) OnError(callback func(error)) {
	f.mu.Lock()

	if f.settledLocked() {
		result := f.result
		f.mu.Unlock()

		if result.IsFailure() {
			invokeCallback("OnError", callback, result.Error)
		}

		return
	}

	f.errorCallbacks = append(f.errorCallbacks, callback)
	f.mu.Unlock()
}

// OnResult registers a callback invoked with the full Try result when the
// future settles, regardless of outcome. The callback runs in its own
// goroutine.
func (f *Future[T]) OnResult(callback func(try.Try[T])) {
	f.mu.Lock()

	if f.settledLocked() {
		result := f.result
		f.mu.Unlock()

		invokeCallback("OnResult", callback, result)

		return
	}

	f.resultCallbacks = append(f.resultCallbacks, callback)
	f.mu.Unlock()
}

// settledLocked reports settlement. Caller must hold f.mu; the channel check
// is safe because fulfill closes the channel while holding the same mutex.
func (f *Future[T]) settledLocked() bool {
	select {
	case <-f.resultReady:
		return true
	default:
		return false
	}
}

// Map returns a future that applies f to the value of fut once it succeeds.
// A failure passes through without invoking f.
func Map[A, B any](fut *Future[A], f func(A) (B, error)) *Future[B] {
	mapped, promise := New[B]()

	fut.OnResult(func(result try.Try[A]) {
		promise.fulfill(try.Map(result, f))
	})

	return mapped
}

// FlatMap returns a future chaining fut into the future produced by f.
// A failure of fut passes through without invoking f.
func FlatMap[A, B any](fut *Future[A], f func(A) *Future[B]) *Future[B] {
	chained, promise := New[B]()

	fut.OnResult(func(result try.Try[A]) {
		if result.IsFailure() {
			promise.Failure(result.Error)

			return
		}

		f(result.Value).OnResult(func(inner try.Try[B]) {
			promise.fulfill(inner)
		})
	})

	return chained
}

// Combine waits for all given futures and collects their values in order.
// The first failure fails the combined future; remaining computations keep
// running but their results are discarded.
func Combine[T any](futures ...*Future[T]) *Future[[]T] {
	return Go(func() ([]T, error) {
		values := make([]T, 0, len(futures))

		for _, fut := range futures {
			value, err := fut.Await()
			if err != nil {
				return nil, err
			}

			values = append(values, value)
		}

		return values, nil
	})
}
