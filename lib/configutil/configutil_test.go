package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `json:"name"`
	Delay int    `json:"delay"`
}

func (c testConfig) Validate() error {
	if c.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		name: "default",
		delay: 2000,
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ delay: 3000 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "default", Delay: 3000}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigValidates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ delay: -1 }`)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.ErrorContains(t, err, "delay must not be negative")
}

func TestReadConfigExpandsEnv(t *testing.T) {
	t.Setenv("CONFIGUTIL_TEST_NAME", "from-env")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ name: "${CONFIGUTIL_TEST_NAME}-pa$$word" }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "from-env-pa$$word", cfg.Name)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ name: "local" }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Name)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	writeFile(t, filepath.Join(root, "telemetry.json5"), `{ name: "root" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("telemetry.json5")
	require.NoError(t, err)
	require.Equal(t, "root", cfg.Name)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("dir", "config.local.json5"), localPath(filepath.Join("dir", "config.json5")))
}
