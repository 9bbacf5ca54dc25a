package httpapi

import (
	"context"
	"errors"
	"net/http"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/logging"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func codeFor(err error) string {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return appcommon.CodeBodyTooLarge
	}
	return appcommon.CodeOf(err)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, appcommon.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, appcommon.ErrVaultNotFound),
		errors.Is(err, appcommon.ErrVaultFilesNotFound):
		return http.StatusNotFound
	case errors.Is(err, appcommon.ErrSimulationReverted),
		errors.Is(err, appcommon.ErrTransactionReverted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, appcommon.ErrTransactionNotMined),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, appcommon.ErrStoreUnavailable),
		errors.Is(err, appcommon.ErrStoreRejected),
		errors.Is(err, appcommon.ErrContentNotFound),
		errors.Is(err, appcommon.ErrLedgerUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes the JSON error body. Internal errors are
// not echoed to the caller.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	log := h.log

	if errors.Is(err, context.Canceled) {
		log.Info(ctx, "request canceled by client")
		return
	}

	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error(ctx, "request failed", "error", err)
		msg = http.StatusText(status)
	} else {
		log.Warn(ctx, "request failed", "status", status, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: msg, Code: codeFor(err), RequestID: logging.RequestID(ctx)})
}
