package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded before reading the environment. Variables already set in
// the process environment win over the file.
var envFile = ".env"

// alchemySepoliaURL is used when only ALCHEMY_API_KEY is provided.
const alchemySepoliaURL = "https://eth-sepolia.g.alchemy.com/v2/"

// parseEnv overlays non-empty environment variables onto config.
//
// Recognised variables:
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_DSN
//	RPC_URL (or ALCHEMY_API_KEY), VAULT_CONTRACT_ADDRESS
//	PRIVATE_KEY, OPERATOR_ADDRESS
//	RECEIPT_TIMEOUT, RECEIPT_POLL_INTERVAL (Go durations)
//	STORE_BACKEND, PINATA_JWT, PINATA_API_KEY, PINATA_API_SECRET,
//	PINATA_API_URL, PINATA_GATEWAY_URL, KUBO_API_URL
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
//	MAX_FILE_SIZE (bytes), SPOOL_DIR, LOG_LEVEL
func parseEnv(config *Config) {
	// a missing .env is normal outside development
	_ = godotenv.Load(envFile)

	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_DSN")

	if key := os.Getenv("ALCHEMY_API_KEY"); key != "" {
		config.LedgerRPCURL = alchemySepoliaURL + key
	}
	setString(&config.LedgerRPCURL, "RPC_URL")
	setString(&config.ContractAddress, "VAULT_CONTRACT_ADDRESS")
	setString(&config.OperatorKey, "PRIVATE_KEY")
	setString(&config.OperatorAddress, "OPERATOR_ADDRESS")

	setDuration(&config.ReceiptTimeout, "RECEIPT_TIMEOUT")
	setDuration(&config.ReceiptPollInterval, "RECEIPT_POLL_INTERVAL")

	setString(&config.StoreBackend, "STORE_BACKEND")
	setString(&config.PinataJWT, "PINATA_JWT")
	setString(&config.PinataAPIKey, "PINATA_API_KEY")
	setString(&config.PinataAPISecret, "PINATA_API_SECRET")
	setString(&config.PinataAPIURL, "PINATA_API_URL")
	setString(&config.PinataGatewayURL, "PINATA_GATEWAY_URL")
	setString(&config.KuboAPIURL, "KUBO_API_URL")

	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			config.MaxFileSize = n
		}
	}
	setString(&config.SpoolDir, "SPOOL_DIR")
	setString(&config.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
