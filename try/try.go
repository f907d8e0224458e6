// Package try provides a small result container that carries either a value
// or an error. It is the payload type used by the future package to settle
// asynchronous computations.
package try

// Try holds the outcome of a computation: a value on success or an error on
// failure. The zero value is a successful Try carrying the zero value of A.
type Try[A any] struct {
	Value A
	Error error
}

// Success wraps a value in a successful Try.
func Success[A any](value A) Try[A] {
	return Try[A]{Value: value}
}

// Failure wraps an error in a failed Try.
func Failure[A any](err error) Try[A] {
	return Try[A]{Error: err}
}

// Of converts a conventional (value, error) pair into a Try.
func Of[A any](value A, err error) Try[A] {
	return Try[A]{Value: value, Error: err}
}

func (t Try[A]) IsSuccess() bool {
	return t.Error == nil
}

func (t Try[A]) IsFailure() bool {
	return t.Error != nil
}

// Get unpacks the Try back into a (value, error) pair.
func (t Try[A]) Get() (A, error) { //nolint:ireturn
	if t.IsFailure() {
		var zero A

		return zero, t.Error
	}

	return t.Value, nil
}

// GetOrElse returns the value on success, or the given default on failure.
func (t Try[A]) GetOrElse(defaultValue A) A { //nolint:ireturn
	if t.IsSuccess() {
		return t.Value
	}

	return defaultValue
}

// Map applies f to the value of a successful Try. A failed Try passes through
// untouched.
func Map[A, B any](t Try[A], f func(A) (B, error)) Try[B] {
	if t.IsFailure() {
		return Try[B]{Error: t.Error}
	}

	val, err := f(t.Value)

	return Try[B]{Value: val, Error: err}
}
