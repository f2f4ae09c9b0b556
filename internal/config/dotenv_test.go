package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipOnWindows skips tests that relocate the config dir through
// XDG_CONFIG_HOME, which Windows ignores in favour of APPDATA.
func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("config dir comes from APPDATA on Windows")
	}
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	skipOnWindows(t)
	work := t.TempDir()
	t.Chdir(work)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	const fromFileOnly = "BDN_DOTENV_TEST_NEW"
	require.NoError(t, os.WriteFile(filepath.Join(work, ".env"), []byte(
		"BDN_HIBP_API_KEY=from-dotenv\n"+fromFileOnly+"=from-dotenv\n"), 0600))

	t.Setenv("BDN_HIBP_API_KEY", "from-environment")
	os.Unsetenv(fromFileOnly)
	t.Cleanup(func() { os.Unsetenv(fromFileOnly) })

	loaded, err := LoadDotEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{".env"}, loaded)

	assert.Equal(t, "from-environment", os.Getenv("BDN_HIBP_API_KEY"))
	assert.Equal(t, "from-dotenv", os.Getenv(fromFileOnly))
}

func TestLoadDotEnvConfigDir(t *testing.T) {
	skipOnWindows(t)
	t.Chdir(t.TempDir())
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("HOME", t.TempDir())

	dir := getConfigDir()
	require.NotEmpty(t, dir)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BDN_LEAKCHECK_API_KEY=lc-from-dotenv\n"), 0600))
	t.Setenv("BDN_LEAKCHECK_API_KEY", "")
	os.Unsetenv("BDN_LEAKCHECK_API_KEY")

	loaded, err := LoadDotEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".env")}, loaded)
	assert.Equal(t, "lc-from-dotenv", os.Getenv("BDN_LEAKCHECK_API_KEY"))
}
