package ignore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDSStoreIgnored(t *testing.T) {
	rules := New(nil)
	require.True(t, rules.IsIgnored(".DS_Store"))
	require.True(t, rules.IsIgnored("some/nested/.DS_Store"))
}

func TestDotUnderscoreIgnored(t *testing.T) {
	rules := New(nil)
	require.True(t, rules.IsIgnored("._foo"))
	require.True(t, rules.IsIgnored("deep/path/._bar"))
}

func TestNormalFilesNotIgnored(t *testing.T) {
	rules := New(nil)
	require.False(t, rules.IsIgnored("readme.md"))
	require.False(t, rules.IsIgnored("src/main.go"))
}

func TestUserPatterns(t *testing.T) {
	rules := New([]string{"*.log", "node_modules"})
	require.True(t, rules.IsIgnored("debug.log"))
	require.True(t, rules.IsIgnored("node_modules"))
	require.True(t, rules.IsIgnored(".DS_Store"))
}
