package ledger

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed memoire_vault.abi.json
var vaultABIJSON string

const (
	methodCreateVault       = "createVault"
	methodRetrieveVault     = "retrieveVault"
	methodDestroyVault      = "destroyVault"
	methodGetVaultStatus    = "getVaultStatus"
	methodGetVaultSummaries = "getVaultSummaries"

	eventVaultRetrieved = "VaultRetrieved"
)

// VaultABI parses the embedded contract ABI.
func VaultABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(vaultABIJSON))
}
