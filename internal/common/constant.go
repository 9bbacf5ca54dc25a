package common

// RequestIDHeader is the HTTP header used to carry the request id issued by
// the server. The CLI prints it when a request fails.
const RequestIDHeader = "X-Request-ID"

// MaxVaultFiles caps the number of files accepted by a single create call.
const MaxVaultFiles = 5

// MaxVaultNameLength is the longest vault name the contract accepts.
const MaxVaultNameLength = 32

// Download response headers listing the 1-based decoded positions that were
// put into the archive and those that could not be fetched, e.g. "1,3".
const (
	VaultIncludedHeader = "X-Vault-Included"
	VaultSkippedHeader  = "X-Vault-Skipped"
)
