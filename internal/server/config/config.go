// Package config handles configuration for the vault server, including
// defaults, environment (.env) overlay, JSON overlay and command-line flags.
package config

import "time"

// Config holds runtime settings for the vault server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses for the HTTP API and the gRPC health service.
//   - DatabaseDSN: pin journal DSN. PostgreSQL (pgx) by default, "sqlite:<path>" for a local file, empty keeps it in memory.
//   - LedgerRPCURL / ContractAddress: JSON-RPC endpoint and vault contract.
//   - OperatorKey / OperatorAddress: simulation account. The key is only used to derive the address.
//   - ReceiptTimeout / ReceiptPollInterval: how long and how often to wait for a mined transaction.
//   - StoreBackend: one of pinata, kubo, s3, memory.
//   - Pinata*, KuboAPIURL, S3*: backend settings.
//   - MaxFileSize: per-file upload limit in bytes. SpoolDir: where fetched files are buffered.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrHTTP    string
	EndpointAddrGRPC    string
	DatabaseDSN         string
	LedgerRPCURL        string
	ContractAddress     string
	OperatorKey         string
	OperatorAddress     string
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
	HealthProbeInterval time.Duration
	StoreTimeout        time.Duration
	StoreBackend        string
	PinataJWT           string
	PinataAPIKey        string
	PinataAPISecret     string
	PinataAPIURL        string
	PinataGatewayURL    string
	KuboAPIURL          string
	S3RootUser          string
	S3RootPassword      string
	S3Bucket            string
	S3Region            string
	S3BaseEndpoint      string
	MaxFileSize         int64
	SpoolDir            string
	LogLevel            string
}

// LoadDefaults populates Config with development defaults: a local node,
// the in-memory content store and an in-memory pin journal.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3001"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.LedgerRPCURL = "http://127.0.0.1:8545"
	c.ReceiptTimeout = 2 * time.Minute
	c.ReceiptPollInterval = 2 * time.Second
	c.HealthProbeInterval = 15 * time.Second
	c.StoreTimeout = time.Minute
	c.StoreBackend = "memory"
	c.PinataAPIURL = "https://api.pinata.cloud"
	c.PinataGatewayURL = "https://gateway.pinata.cloud"
	c.KuboAPIURL = "http://127.0.0.1:5001"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.MaxFileSize = 10 << 20
	c.SpoolDir = ""
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (and an optional .env file), an optional JSON file
// and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
