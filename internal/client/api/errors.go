package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/netx"
)

var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx answer from the server.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// Unwrap maps the server's error code back onto the shared error taxonomy.
// Responses without a code fall back to the status.
func (e *Error) Unwrap() error {
	if e.Code != "" {
		return appcommon.ErrorFor(e.Code)
	}
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return appcommon.ErrInvalidInput
	case http.StatusNotFound:
		return appcommon.ErrVaultNotFound
	case http.StatusUnprocessableEntity:
		return appcommon.ErrSimulationReverted
	case http.StatusBadGateway:
		return appcommon.ErrLedgerUnavailable
	case http.StatusGatewayTimeout:
		return appcommon.ErrTransactionNotMined
	default:
		return nil
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

// decodeError turns a failed response into *Error. The body is expected to
// be the server's JSON error object; anything else is kept as the message.
func decodeError(resp *http.Response) error {
	err := netx.CheckResponse(resp)
	if err == nil {
		return nil
	}
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return err
	}

	e := &Error{StatusCode: resp.StatusCode, RequestID: resp.Header.Get(appcommon.RequestIDHeader)}
	var body errorBody
	if jerr := json.Unmarshal([]byte(se.Body), &body); jerr == nil && body.Error != "" {
		e.Message = body.Error
		e.Code = body.Code
		if body.RequestID != "" {
			e.RequestID = body.RequestID
		}
	} else {
		e.Message = se.Body
	}
	return e
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
