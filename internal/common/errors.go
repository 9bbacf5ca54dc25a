// Package common defines shared constants and sentinel errors used across
// the vault service and its command line client. Callers should use errors.Is
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Client input errors.
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidUnlockTime = fmt.Errorf("%w: invalid unlock time", ErrInvalidInput)

	// Content store errors.
	ErrStoreUnavailable = errors.New("content store unavailable")
	ErrStoreRejected    = errors.New("content store rejected request")
	ErrContentNotFound  = errors.New("content not found")

	// Ledger errors.
	ErrLedgerUnavailable   = errors.New("ledger unavailable")
	ErrSimulationReverted  = errors.New("simulation reverted")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrTransactionNotMined = errors.New("transaction not mined")

	// Result errors: the request was valid but there is nothing to return.
	ErrVaultNotFound      = errors.New("vault not found")
	ErrVaultFilesNotFound = errors.New("vault files not found")
)

// RevertError carries the reason string reported by the ledger when a call
// would revert. It matches ErrSimulationReverted.
type RevertError struct {
	Op     string
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: execution reverted", e.Op)
	}
	return fmt.Sprintf("%s: execution reverted: %s", e.Op, e.Reason)
}

func (e *RevertError) Is(target error) bool {
	return target == ErrSimulationReverted
}
