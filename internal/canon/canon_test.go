package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalSortsMapKeys(t *testing.T) {
	a, err := Marshal(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	bVal, err := Marshal(map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)
	require.Equal(t, string(bVal), string(a))
	require.Equal(t, `{"a":2,"b":1}`, string(a))
}

func TestMarshalHasNoTrailingNewline(t *testing.T) {
	out, err := Marshal(map[string]any{"x": 1})
	require.NoError(t, err)
	require.NotEqual(t, byte('\n'), out[len(out)-1])
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	out, err := Marshal(map[string]any{"html": "<b>&</b>"})
	require.NoError(t, err)
	require.Contains(t, string(out), "<b>&</b>")
}

func TestMarshalSortsNestedMaps(t *testing.T) {
	a, err := Marshal(map[string]any{
		"outer": map[string]any{"z": 1, "a": 2},
	})
	require.NoError(t, err)
	require.Equal(t, `{"outer":{"a":2,"z":1}}`, string(a))
}

func TestHashIsDeterministic(t *testing.T) {
	h1, err := Hash(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestHashBytesMatchesHash(t *testing.T) {
	b, err := Marshal(map[string]any{"a": 1})
	require.NoError(t, err)
	h, err := Hash(map[string]any{"a": 1})
	require.NoError(t, err)
	require.Equal(t, h, HashBytes(b))
	require.NotEmpty(t, HashBytes(nil))
}
