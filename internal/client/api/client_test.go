package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func TestPing(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"ok","timestamp":"2025-01-01T00:00:00Z"}`)
	})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestCreateVault(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "letters", r.FormValue("name"))
		assert.Equal(t, "2030-01-01", r.FormValue("lockTime"))
		files := r.MultipartForm.File["files"]
		if assert.Len(t, files, 2) {
			assert.Equal(t, "a.txt", files[0].Filename)
			assert.Equal(t, "b.txt", files[1].Filename)
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{
			"transaction":{"address":"0xaa","functionName":"createVault","args":[],"data":"0x","gas":"21000",
				"maxFeePerGas":"3","maxPriorityFeePerGas":"1","value":"0","chainId":"31337"},
			"files":[{"originalName":"a.txt","cid":"bafy1"},{"originalName":"b.txt","cid":"bafy2"}],
			"unlockTime":1893456000}`)
	})

	res, err := c.CreateVault(context.Background(), "letters", "2030-01-01", []File{
		{Name: "a.txt", Data: []byte("alpha")},
		{Name: "b.txt", Data: []byte("beta")},
	})
	require.NoError(t, err)
	assert.Equal(t, "createVault", res.Transaction.FunctionName)
	assert.Equal(t, "21000", res.Transaction.Gas)
	assert.Equal(t, "31337", res.Transaction.ChainID)
	assert.Equal(t, []ManifestEntry{{"a.txt", "bafy1"}, {"b.txt", "bafy2"}}, res.Files)
	assert.EqualValues(t, 1893456000, res.UnlockTime)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, appcommon.ErrInvalidInput},
		{http.StatusNotFound, appcommon.ErrVaultNotFound},
		{http.StatusUnprocessableEntity, appcommon.ErrSimulationReverted},
		{http.StatusBadGateway, appcommon.ErrLedgerUnavailable},
		{http.StatusGatewayTimeout, appcommon.ErrTransactionNotMined},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(appcommon.RequestIDHeader, "hdr-id")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":"boom","requestId":"body-id"}`)
			})

			_, err := c.Status(context.Background(), "0x01")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "boom", apiErr.Message)
			assert.Equal(t, "body-id", apiErr.RequestID)
		})
	}
}

func TestErrorMapping_ByCode(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
		not    error
	}{
		{http.StatusBadGateway, appcommon.CodeStoreUnavailable, appcommon.ErrStoreUnavailable, appcommon.ErrLedgerUnavailable},
		{http.StatusBadGateway, appcommon.CodeLedgerUnavailable, appcommon.ErrLedgerUnavailable, appcommon.ErrStoreUnavailable},
		{http.StatusNotFound, appcommon.CodeVaultFilesNotFound, appcommon.ErrVaultFilesNotFound, appcommon.ErrVaultNotFound},
		{http.StatusNotFound, appcommon.CodeVaultNotFound, appcommon.ErrVaultNotFound, appcommon.ErrVaultFilesNotFound},
		{http.StatusBadRequest, appcommon.CodeInvalidUnlockTime, appcommon.ErrInvalidUnlockTime, appcommon.ErrStoreUnavailable},
		{http.StatusRequestEntityTooLarge, appcommon.CodeBodyTooLarge, appcommon.ErrInvalidInput, appcommon.ErrVaultNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprintf(w, `{"error":"boom","code":%q,"requestId":"rid"}`, tt.code)
			})

			_, err := c.CIDs(context.Background(), "0x02")
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, tt.not)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestError_NonJSONBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(appcommon.RequestIDHeader, "hdr-id")
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})

	_, err := c.CIDs(context.Background(), "0x02")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
	assert.Equal(t, "hdr-id", apiErr.RequestID)
	assert.Nil(t, apiErr.Unwrap())
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Vaults(context.Background(), "0xaa")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReadRoutes(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vault/0x01/status":
			_, _ = io.WriteString(w, `{"isOpen":false,"unlockTime":"1893456000"}`)
		case "/vault/0x01/tx":
			_, _ = io.WriteString(w, `{"functionName":"retrieveVault","value":"0"}`)
		case "/vault/0x01/destroy-tx":
			_, _ = io.WriteString(w, `{"functionName":"destroyVault","value":"0"}`)
		case "/vault/tx/0x02/cids":
			_, _ = io.WriteString(w, `["bafy1","bafy2"]`)
		case "/owners/0xaa/vaults":
			_, _ = io.WriteString(w, `[{"vaultId":"0x01","name":"letters"}]`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	st, err := c.Status(ctx, "0x01")
	require.NoError(t, err)
	assert.Equal(t, &VaultStatus{IsOpen: false, UnlockTime: "1893456000"}, st)

	tx, err := c.RetrieveTx(ctx, "0x01")
	require.NoError(t, err)
	assert.Equal(t, "retrieveVault", tx.FunctionName)

	tx, err = c.DestroyTx(ctx, "0x01")
	require.NoError(t, err)
	assert.Equal(t, "destroyVault", tx.FunctionName)

	cids, err := c.CIDs(ctx, "0x02")
	require.NoError(t, err)
	assert.Equal(t, []string{"bafy1", "bafy2"}, cids)

	vaults, err := c.Vaults(ctx, "0xaa")
	require.NoError(t, err)
	assert.Equal(t, []Vault{{VaultID: "0x01", Name: "letters"}}, vaults)
}

func TestDownload(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vault/tx/0x02/files", r.URL.Path)
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="vault-abcdef01.zip"`)
		w.Header().Set(appcommon.VaultIncludedHeader, "1,3")
		w.Header().Set(appcommon.VaultSkippedHeader, "2")
		_, _ = io.WriteString(w, "PK-archive-bytes")
	})

	var buf bytes.Buffer
	rep, err := c.Download(context.Background(), "0x02", &buf)
	require.NoError(t, err)
	assert.Equal(t, "PK-archive-bytes", buf.String())
	assert.Equal(t, &DownloadReport{FileName: "vault-abcdef01.zip", Included: "1,3", Skipped: "2", Bytes: 16}, rep)
}
