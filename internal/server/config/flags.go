package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/memoire/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3001")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN for the pin journal
//	-r string   ledger JSON-RPC URL
//	-v string   vault contract address
//	-o string   operational (simulation) account address
//	-t int      receipt timeout, seconds
//	-s string   content store backend (pinata|kubo|s3|memory)
//	-i string   kubo RPC API URL
//	-b string   S3 bucket name
//	-e string   S3 base endpoint
//	-w string   spool directory for archive assembly
//	-l string   log level (debug|info|warn|error)
//
// Args are first filtered with flagx.FilterArgs so that -c/-config and
// flags of other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-r", "-v", "-o", "-t", "-s", "-i", "-b", "-e", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LedgerRPCURL, "r", config.LedgerRPCURL, "ledger RPC URL")
	fs.StringVar(&config.ContractAddress, "v", config.ContractAddress, "vault contract address")
	fs.StringVar(&config.OperatorAddress, "o", config.OperatorAddress, "operational account address")

	receiptTimeout := fs.Int("t", int(config.ReceiptTimeout.Seconds()), "receipt timeout (in seconds)")

	fs.StringVar(&config.StoreBackend, "s", config.StoreBackend, "content store backend")
	fs.StringVar(&config.KuboAPIURL, "i", config.KuboAPIURL, "kubo RPC API URL")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.SpoolDir, "w", config.SpoolDir, "spool directory")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ReceiptTimeout = time.Duration(*receiptTimeout) * time.Second
}
