package config

import "time"

// Config holds runtime settings for vaultctl.
//
// Fields:
//   - ServerURL: base URL of the vault HTTP API.
//   - Timeout: upper bound for a single request, downloads included.
type Config struct {
	ServerURL string
	Timeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3001"
	c.Timeout = 5 * time.Minute
}

// LoadConfig applies defaults and then overlays the JSON file at path, if
// any. Command-line flags are applied afterwards by the caller.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
