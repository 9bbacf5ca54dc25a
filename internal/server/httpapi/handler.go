// Package httpapi exposes the vault operations over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/logging"
	"github.com/dmitrijs2005/memoire/internal/server/ledger"
	"github.com/dmitrijs2005/memoire/internal/server/vault"
)

// VaultService is implemented by *vault.Service.
type VaultService interface {
	CreateVault(ctx context.Context, req vault.CreateVaultRequest) (*vault.CreateVaultResult, error)
	VaultStatus(ctx context.Context, vaultID string) (vault.StatusView, error)
	RetrieveTransaction(ctx context.Context, vaultID string) (*ledger.TxRequest, error)
	DestroyTransaction(ctx context.Context, vaultID string) (*ledger.TxRequest, error)
	ListCIDs(ctx context.Context, txHash string) ([]string, error)
	ListVaults(ctx context.Context, owner string) ([]vault.VaultView, error)
}

// ArchiveOpener is implemented by *vault.Archiver.
type ArchiveOpener interface {
	OpenArchive(ctx context.Context, txHash string) (*vault.Bundle, error)
}

const multipartMemory = 32 << 20

type Handler struct {
	vault     VaultService
	archiver  ArchiveOpener
	log       logging.Logger
	maxUpload int64
	now       func() time.Time
}

// NewHandler builds the handler. maxFileSize bounds each uploaded file and
// so the whole upload body. Zero or less leaves the body unbounded, matching
// vault.WithMaxFileSize.
func NewHandler(v VaultService, a ArchiveOpener, log logging.Logger, maxFileSize int64) *Handler {
	h := &Handler{
		vault:    v,
		archiver: a,
		log:      log.With("module", "http"),
		now:      time.Now,
	}
	if maxFileSize > 0 {
		h.maxUpload = int64(appcommon.MaxVaultFiles)*maxFileSize + 1<<20
	}
	return h
}

// Router wires routes and middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogging(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.root)
	r.Post("/upload", h.upload)

	r.Route("/vault", func(r chi.Router) {
		r.Get("/{vaultId}/status", h.status)
		r.Get("/{vaultId}/tx", h.retrieveTx)
		r.Get("/{vaultId}/destroy-tx", h.destroyTx)
		r.Get("/tx/{txHash}/files", h.files)
		r.Get("/tx/{txHash}/cids", h.cids)
	})

	r.Get("/owners/{address}/vaults", h.vaults)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if !errors.As(err, &mbe) {
			err = fmt.Errorf("%w: malformed multipart body: %v", appcommon.ErrInvalidInput, err)
		}
		h.writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) > appcommon.MaxVaultFiles {
		h.writeError(w, r, fmt.Errorf("%w: at most %d files per vault", appcommon.ErrInvalidInput, appcommon.MaxVaultFiles))
		return
	}

	files := make([]vault.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		files = append(files, vault.File{Name: fh.Filename, Data: data})
	}

	unlock := r.FormValue("lockTime")
	if unlock == "" {
		unlock = r.FormValue("unlockTime")
	}

	res, err := h.vault.CreateVault(r.Context(), vault.CreateVaultRequest{
		RequestID:  logging.RequestID(r.Context()),
		Name:       r.FormValue("name"),
		UnlockTime: unlock,
		Files:      files,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.vault.VaultStatus(r.Context(), chi.URLParam(r, "vaultId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) retrieveTx(w http.ResponseWriter, r *http.Request) {
	tx, err := h.vault.RetrieveTransaction(r.Context(), chi.URLParam(r, "vaultId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) destroyTx(w http.ResponseWriter, r *http.Request) {
	tx, err := h.vault.DestroyTransaction(r.Context(), chi.URLParam(r, "vaultId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) cids(w http.ResponseWriter, r *http.Request) {
	cids, err := h.vault.ListCIDs(r.Context(), chi.URLParam(r, "txHash"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cids)
}

func (h *Handler) vaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.vault.ListVaults(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vaults)
}

// files streams the vault archive. Every file is fetched before the first
// byte is written, so a failed retrieval still gets a proper error status.
func (h *Handler) files(w http.ResponseWriter, r *http.Request) {
	txHash := chi.URLParam(r, "txHash")

	b, err := h.archiver.OpenArchive(r.Context(), txHash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer b.Close()

	rep := b.Report()
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vault-%s.zip"`, shortHash(txHash)))
	w.Header().Set(appcommon.VaultIncludedHeader, vault.JoinPositions(rep.Included))
	w.Header().Set(appcommon.VaultSkippedHeader, vault.JoinPositions(rep.Skipped))
	w.WriteHeader(http.StatusOK)

	if err := b.WriteZip(w); err != nil {
		h.log.Error(r.Context(), "archive stream interrupted", "error", err)
	}
}

// shortHash is the first eight hex digits of an already validated hash.
func shortHash(txHash string) string {
	return strings.ToLower(txHash[2:10])
}
