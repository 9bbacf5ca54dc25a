package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/memoire/internal/flagx"
	"github.com/dmitrijs2005/memoire/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Timeout accepts "90s" style strings or integer nanoseconds.
type JsonConfig struct {
	ServerURL string          `json:"server_url"`
	Timeout   *timex.Duration `json:"timeout"`
}

// parseJson overlays cfg with the JSON file at path. An empty path falls
// back to $VAULT_CONFIG; when that is empty too nothing is loaded. Only keys
// present in the file override cfg.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		path = os.Getenv(flagx.ConfigFileEnv)
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.Timeout != nil {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
