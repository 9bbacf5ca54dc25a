package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/memoire/internal/flagx"
	"github.com/dmitrijs2005/memoire/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations use
// timex.Duration so both "90s" and integer nanoseconds are accepted.
// Only fields present (non-zero) in the file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	DatabaseDSN         string         `json:"database_dsn"`
	LedgerRPCURL        string         `json:"ledger_rpc_url"`
	ContractAddress     string         `json:"contract_address"`
	OperatorAddress     string         `json:"operator_address"`
	ReceiptTimeout      timex.Duration `json:"receipt_timeout"`
	ReceiptPollInterval timex.Duration `json:"receipt_poll_interval"`
	HealthProbeInterval timex.Duration `json:"health_probe_interval"`
	StoreTimeout        timex.Duration `json:"store_timeout"`
	StoreBackend        string         `json:"store_backend"`
	PinataAPIURL        string         `json:"pinata_api_url"`
	PinataGatewayURL    string         `json:"pinata_gateway_url"`
	KuboAPIURL          string         `json:"kubo_api_url"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	MaxFileSize         int64          `json:"max_file_size"`
	SpoolDir            string         `json:"spool_dir"`
	LogLevel            string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config (or $VAULT_CONFIG) and
// overlays it onto config. Secrets (operator key, Pinata credentials) are
// never read from the file; they come from the environment. An unreadable or
// malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.LedgerRPCURL, c.LedgerRPCURL)
	overlay(&config.ContractAddress, c.ContractAddress)
	overlay(&config.OperatorAddress, c.OperatorAddress)
	overlay(&config.ReceiptTimeout, c.ReceiptTimeout.Duration)
	overlay(&config.ReceiptPollInterval, c.ReceiptPollInterval.Duration)
	overlay(&config.HealthProbeInterval, c.HealthProbeInterval.Duration)
	overlay(&config.StoreTimeout, c.StoreTimeout.Duration)
	overlay(&config.StoreBackend, c.StoreBackend)
	overlay(&config.PinataAPIURL, c.PinataAPIURL)
	overlay(&config.PinataGatewayURL, c.PinataGatewayURL)
	overlay(&config.KuboAPIURL, c.KuboAPIURL)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.MaxFileSize, c.MaxFileSize)
	overlay(&config.SpoolDir, c.SpoolDir)
	overlay(&config.LogLevel, c.LogLevel)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
