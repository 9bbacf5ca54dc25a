// Package api is a typed HTTP client for the vault service.
//
// # Error Handling
//
// Non-2xx responses are returned as *Error, which carries the status, the
// server message and the request id. *Error unwraps to the sentinel errors
// of the common package (ErrInvalidInput, ErrVaultNotFound,
// ErrSimulationReverted, ErrLedgerUnavailable, ...) so callers can match
// them with errors.Is. Transport failures wrap ErrUnavailable.
package api
