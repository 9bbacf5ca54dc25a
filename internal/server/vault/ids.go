package vault

import (
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
)

var (
	hash32Pattern    = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	vaultNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ParseVaultID accepts a 0x-prefixed 32-byte hex identifier.
func ParseVaultID(s string) ([32]byte, error) {
	var id [32]byte
	if !hash32Pattern.MatchString(s) {
		return id, fmt.Errorf("%w: vault id must be 0x followed by 64 hex characters", appcommon.ErrInvalidInput)
	}
	copy(id[:], hexutil.MustDecode(s))
	return id, nil
}

func ParseTxHash(s string) (common.Hash, error) {
	if !hash32Pattern.MatchString(s) {
		return common.Hash{}, fmt.Errorf("%w: transaction hash must be 0x followed by 64 hex characters", appcommon.ErrInvalidInput)
	}
	return common.HexToHash(s), nil
}

func ParseOwner(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid owner address %q", appcommon.ErrInvalidInput, s)
	}
	return common.HexToAddress(s), nil
}

// ValidateName checks a vault name against the contract's naming rules.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > appcommon.MaxVaultNameLength {
		return fmt.Errorf("%w: name must be 1 to %d characters", appcommon.ErrInvalidInput, appcommon.MaxVaultNameLength)
	}
	if !vaultNamePattern.MatchString(name) {
		return fmt.Errorf("%w: name may only contain lowercase letters, digits and dashes", appcommon.ErrInvalidInput)
	}
	return nil
}
