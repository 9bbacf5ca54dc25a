package common

import "errors"

// Error codes sent in the "code" field of HTTP error bodies. They let the
// client recover the exact sentinel where one status covers several.
const (
	CodeInvalidUnlockTime   = "invalid_unlock_time"
	CodeInvalidInput        = "invalid_input"
	CodeBodyTooLarge        = "body_too_large"
	CodeVaultNotFound       = "vault_not_found"
	CodeVaultFilesNotFound  = "vault_files_not_found"
	CodeSimulationReverted  = "simulation_reverted"
	CodeTransactionReverted = "transaction_reverted"
	CodeTransactionNotMined = "transaction_not_mined"
	CodeStoreUnavailable    = "store_unavailable"
	CodeStoreRejected       = "store_rejected"
	CodeContentNotFound     = "content_not_found"
	CodeLedgerUnavailable   = "ledger_unavailable"
	CodeInternal            = "internal"
)

// codes is ordered most specific first.
var codes = []struct {
	code string
	err  error
}{
	{CodeInvalidUnlockTime, ErrInvalidUnlockTime},
	{CodeInvalidInput, ErrInvalidInput},
	{CodeVaultNotFound, ErrVaultNotFound},
	{CodeVaultFilesNotFound, ErrVaultFilesNotFound},
	{CodeSimulationReverted, ErrSimulationReverted},
	{CodeTransactionReverted, ErrTransactionReverted},
	{CodeTransactionNotMined, ErrTransactionNotMined},
	{CodeStoreUnavailable, ErrStoreUnavailable},
	{CodeStoreRejected, ErrStoreRejected},
	{CodeContentNotFound, ErrContentNotFound},
	{CodeLedgerUnavailable, ErrLedgerUnavailable},
}

// CodeOf returns the code of the first sentinel err matches, or
// CodeInternal.
func CodeOf(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// ErrorFor maps a code back to its sentinel. CodeBodyTooLarge maps to
// ErrInvalidInput; CodeInternal and unknown codes give nil.
func ErrorFor(code string) error {
	if code == CodeBodyTooLarge {
		return ErrInvalidInput
	}
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
