// Package cryptox turns the operational account credential into the address
// used for ledger simulations. The private key itself is never retained.
package cryptox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrNoOperator = errors.New("no operational account configured")

// OperatorAddress resolves the simulation account from either a hex encoded
// secp256k1 private key (with or without 0x prefix) or an explicit address.
// The key takes precedence when both are set. The key buffer is wiped before
// returning.
func OperatorAddress(key []byte, address string) (common.Address, error) {
	defer wipe(key)

	if len(key) > 0 {
		hexKey := strings.TrimPrefix(strings.TrimSpace(string(key)), "0x")
		pk, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return common.Address{}, fmt.Errorf("parse operational key: %w", err)
		}
		return crypto.PubkeyToAddress(pk.PublicKey), nil
	}

	if address == "" {
		return common.Address{}, ErrNoOperator
	}
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid operational address %q", address)
	}
	return common.HexToAddress(address), nil
}

// wipe zeroes b in place.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
