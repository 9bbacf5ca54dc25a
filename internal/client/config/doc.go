// Package config loads runtime configuration for vaultctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given by --config, or $VAULT_CONFIG.
//  3. Command-line flags (--server, --timeout), applied by the cli package.
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:3001",
//	  "timeout": "2m"
//	}
package config
