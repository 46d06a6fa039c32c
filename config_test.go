package writectrl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "writectrl.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadControllerConfig_Valid(t *testing.T) {
	path := writeConfig(t, `{
		"controllers": {
			"default": {"configured_rate_bytes_per_sec": 67108864}
		}
	}`)

	cfg, err := LoadControllerConfig(path, "default")
	require.NoError(t, err)
	assert.Equal(t, uint64(67108864), cfg.ConfiguredRateBytesPerSec)
}

func TestLoadControllerConfig_UnknownName(t *testing.T) {
	path := writeConfig(t, `{"controllers": {"default": {"configured_rate_bytes_per_sec": 1}}}`)

	_, err := LoadControllerConfig(path, "other")
	assert.Error(t, err)
}

func TestLoadControllerConfig_ZeroRate(t *testing.T) {
	path := writeConfig(t, `{"controllers": {"default": {"configured_rate_bytes_per_sec": 0}}}`)

	_, err := LoadControllerConfig(path, "default")
	assert.True(t, errors.Is(err, ErrInvalidRate))
}

func TestLoadControllerConfig_MissingFile(t *testing.T) {
	_, err := LoadControllerConfig(filepath.Join(t.TempDir(), "missing.json"), "default")
	assert.Error(t, err)
}

func TestLoadControllerConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := LoadControllerConfig(path, "default")
	assert.Error(t, err)
}
