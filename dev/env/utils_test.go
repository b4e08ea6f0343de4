package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	plain, err := ResolvePath("public/screenshots")
	require.NoError(t, err)
	require.Equal(t, "public/screenshots", plain)

	root, err := GetWorkspaceRoot()
	require.NoError(t, err)

	state, err := ResolvePath("<dev_state>/cooldowns.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "cooldowns.db"), state)
}

func TestResolvePathStateDirEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(StateDirEnv, filepath.Join(dir, "state"))

	resolved, err := ResolvePath("<dev_state>/screenshots/a.png")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "state", "screenshots", "a.png"), resolved)
	require.DirExists(t, filepath.Join(dir, "state"))
}
