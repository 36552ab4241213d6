package runtimeconfig

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFile decodes the TOML file at path on top of cfg. Keys that are absent
// from the file keep their current values. The result is not validated so
// callers can overlay the environment before calling Validate.
func LoadFile(cfg Config, path string) (Config, error) {
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("cms config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Config{}, fmt.Errorf("cms config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
