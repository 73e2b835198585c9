package config

import (
	"fmt"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Marshal renders the config as "toml" (the default) or "yaml".
func (c *Config) Marshal(format string) ([]byte, error) {
	switch format {
	case "", "toml":
		return toml.Marshal(c)
	case "yaml", "yml":
		return yaml.Marshal(c)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}
