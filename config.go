package writectrl

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// configFile is the top-level JSON structure read by [LoadControllerConfig].
type configFile struct {
	Controllers map[string]ControllerConfig `json:"controllers"`
}

// ControllerConfig holds the file-configurable parameters for one named
// Controller. It intentionally carries only what the admission-control
// constructor itself needs — the rate a configured DelayToken should use at
// startup — rather than growing knobs the controller has no use for.
type ControllerConfig struct {
	ConfiguredRateBytesPerSec uint64 `json:"configured_rate_bytes_per_sec"`
}

// LoadControllerConfig reads a JSON configuration file and returns the
// named controller's configuration. Use it at startup to source the
// initial delay rate before calling [Controller.NewDelayToken]; the
// Controller itself has no notion of configuration files or names beyond
// what [WithName] records for diagnostics.
func LoadControllerConfig(path, name string) (ControllerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ControllerConfig{}, fmt.Errorf("writectrl: read config: %w", err)
	}

	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ControllerConfig{}, fmt.Errorf("writectrl: parse config: %w", err)
	}

	cc, ok := cfg.Controllers[name]
	if !ok {
		return ControllerConfig{}, fmt.Errorf("writectrl: no controller config named %q", name)
	}
	if cc.ConfiguredRateBytesPerSec == 0 {
		return ControllerConfig{}, fmt.Errorf("writectrl: controller %q: %w", name, ErrInvalidRate)
	}

	return cc, nil
}
