package try_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-dev/flowstate/try"
)

var errTryTest = errors.New("boom")

func TestSuccess(t *testing.T) {
	t.Parallel()

	res := try.Success(42)

	assert.True(t, res.IsSuccess())
	assert.False(t, res.IsFailure())

	val, err := res.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestFailure(t *testing.T) {
	t.Parallel()

	res := try.Failure[int](errTryTest)

	assert.False(t, res.IsSuccess())
	assert.True(t, res.IsFailure())

	val, err := res.Get()
	require.ErrorIs(t, err, errTryTest)
	assert.Zero(t, val)
}

func TestOf(t *testing.T) {
	t.Parallel()

	assert.True(t, try.Of("ok", nil).IsSuccess())
	assert.True(t, try.Of("", errTryTest).IsFailure())
}

func TestGetOrElse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, try.Success(1).GetOrElse(9))
	assert.Equal(t, 9, try.Failure[int](errTryTest).GetOrElse(9))
}

func TestMap(t *testing.T) {
	t.Parallel()

	doubled := try.Map(try.Success(21), func(v int) (int, error) {
		return v * 2, nil
	})

	val, err := doubled.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, val)

	// A failed Try short-circuits the mapping function.
	mapped := try.Map(try.Failure[int](errTryTest), func(v int) (string, error) {
		t.Fatal("mapper should not run on failure")

		return "", nil
	})
	assert.True(t, mapped.IsFailure())
}
