package clone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-dev/flowstate/clone"
)

func TestMap_BreaksNestedReferences(t *testing.T) {
	t.Parallel()

	src := map[string]any{
		"user":  map[string]any{"role": "user"},
		"tags":  []any{"a", "b"},
		"count": 0,
	}

	copied := clone.Map(src)

	// Mutating the copy must not leak into the source, and vice versa.
	copied["user"].(map[string]any)["role"] = "admin"
	copied["tags"].([]any)[0] = "z"
	src["count"] = 99

	assert.Equal(t, "user", src["user"].(map[string]any)["role"])
	assert.Equal(t, "a", src["tags"].([]any)[0])
	assert.Equal(t, 0, copied["count"])
}

func TestMap_Nil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, clone.Map(nil))
}

func TestSlice_DeepCopiesElements(t *testing.T) {
	t.Parallel()

	src := []any{map[string]any{"k": []any{1, 2}}}

	copied := clone.Slice(src)
	require.Len(t, copied, 1)

	copied[0].(map[string]any)["k"].([]any)[0] = 9

	assert.Equal(t, 1, src[0].(map[string]any)["k"].([]any)[0])
}

func TestValue_ScalarsPassThrough(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 42, clone.Value(42))
	assert.Equal(t, "s", clone.Value("s"))
	assert.Equal(t, true, clone.Value(true))
	assert.Nil(t, clone.Value(nil))
}

func TestValue_PointerLeavesAlias(t *testing.T) {
	t.Parallel()

	// Non-structural leaves are copied by assignment, so pointers alias.
	p := &struct{ N int }{N: 1}
	copied := clone.Value(map[string]any{"p": p}).(map[string]any)

	assert.Same(t, p, copied["p"])
}

func TestTwoClonesShareNothing(t *testing.T) {
	t.Parallel()

	seed := map[string]any{"nested": map[string]any{"n": 0}}

	first := clone.Map(seed)
	second := clone.Map(seed)

	first["nested"].(map[string]any)["n"] = 1

	assert.Equal(t, 0, second["nested"].(map[string]any)["n"])
}
