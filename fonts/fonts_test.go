package fonts

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

func TestBuiltinCaseInsensitive(t *testing.T) {
	name, data, ok := Builtin("  go mono ")
	require.True(t, ok)
	assert.Equal(t, "Go Mono", name)
	assert.True(t, bytes.Equal(gomono.TTF, data))
}

func TestResolveFallsBackSilently(t *testing.T) {
	src, err := Resolve("Definitely Not A Real Font 9f3c")
	require.NoError(t, err)
	assert.Equal(t, DefaultFamily, src.Family)
	assert.True(t, bytes.Equal(goregular.TTF, src.Data))
	assert.Empty(t, src.Path)
}

func TestResolveEmptyUsesDefault(t *testing.T) {
	src, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFamily, src.Family)
}

func TestFamiliesIncludeBuiltins(t *testing.T) {
	names := Families()
	assert.True(t, sort.StringsAreSorted(names))
	for _, b := range BuiltinFamilies() {
		assert.Contains(t, names, b)
	}
	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate family %q", n)
		seen[n] = true
	}
}
