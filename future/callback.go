package future

import (
	"errors"
	"log/slog"
	"runtime/debug"
)

var (
	errFuturePanic     = errors.New("panic in future")
	errPromiseCanceled = errors.New("promise canceled")
)

// invokeCallback runs a user callback in its own goroutine with panic
// recovery. Nil callbacks are ignored. The goroutine keeps callbacks from
// blocking promise fulfillment; recovery keeps a panicking callback from
// taking down the process.
func invokeCallback[T any](kind string, callback func(T), value T) {
	if callback == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in future."+kind+" callback",
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()

		callback(value)
	}()
}
