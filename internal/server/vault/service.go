// Package vault implements vault creation and the read operations exposed
// over HTTP. Every call is self-contained: vault state of record lives on
// the ledger and nothing here is kept between requests.
package vault

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/logging"
	"github.com/dmitrijs2005/memoire/internal/server/ledger"
	"github.com/dmitrijs2005/memoire/internal/server/pinlog"
	"github.com/dmitrijs2005/memoire/internal/server/store"
)

// Ledger is the part of ledger.Client the vault operations use.
type Ledger interface {
	SimulateCreateVault(ctx context.Context, name string, cids []string, unlockTime uint64) (*ledger.TxRequest, error)
	SimulateRetrieveVault(ctx context.Context, vaultID [32]byte) (*ledger.TxRequest, error)
	SimulateDestroyVault(ctx context.Context, vaultID [32]byte) (*ledger.TxRequest, error)
	GetVaultStatus(ctx context.Context, vaultID [32]byte) (ledger.VaultStatus, error)
	GetVaultSummaries(ctx context.Context, owner common.Address) ([]ledger.VaultSummary, error)
	DecodeRetrievedFiles(ctx context.Context, txHash common.Hash) ([]string, error)
}

var _ Ledger = (*ledger.Client)(nil)

type File struct {
	Name string
	Data []byte
}

type CreateVaultRequest struct {
	// RequestID correlates the call's log records and journal rows. Taken
	// from the context, or generated, when empty. Clients choose it, so it
	// is never used as a journal key.
	RequestID  string
	Name       string
	UnlockTime string
	Files      []File
}

type ManifestEntry struct {
	OriginalName string `json:"originalName"`
	CID          string `json:"cid"`
}

type CreateVaultResult struct {
	Transaction *ledger.TxRequest `json:"transaction"`
	Files       []ManifestEntry   `json:"files"`
	UnlockTime  int64             `json:"unlockTime"`
}

type StatusView struct {
	IsOpen     bool   `json:"isOpen"`
	UnlockTime string `json:"unlockTime"`
}

type VaultView struct {
	VaultID string `json:"vaultId"`
	Name    string `json:"name"`
}

type Service struct {
	store       store.Store
	ledger      Ledger
	journal     pinlog.Journal
	log         logging.Logger
	maxFileSize int64
	now         func() time.Time
	newID       func() string
}

type Option func(*Service)

// WithMaxFileSize rejects files larger than n bytes. Zero disables the check.
func WithMaxFileSize(n int64) Option {
	return func(s *Service) { s.maxFileSize = n }
}

func WithJournal(j pinlog.Journal) Option {
	return func(s *Service) { s.journal = j }
}

func NewService(st store.Store, l Ledger, log logging.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		ledger:  l,
		journal: pinlog.NewMemory(),
		log:     log.With("module", "vault"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) validate(req CreateVaultRequest) (int64, error) {
	if n := len(req.Files); n == 0 || n > appcommon.MaxVaultFiles {
		return 0, fmt.Errorf("%w: expected 1 to %d files, got %d", appcommon.ErrInvalidInput, appcommon.MaxVaultFiles, n)
	}
	if err := ValidateName(req.Name); err != nil {
		return 0, err
	}
	for i, f := range req.Files {
		if s.maxFileSize > 0 && int64(len(f.Data)) > s.maxFileSize {
			return 0, fmt.Errorf("%w: file %d (%s) exceeds %d bytes", appcommon.ErrInvalidInput, i+1, f.Name, s.maxFileSize)
		}
	}
	return ParseUnlockTime(req.UnlockTime)
}

// CreateVault pins every file in input order and simulates the vault
// creation. Any failure aborts the whole call: no transaction and no
// partial manifest are returned. Pins made before a failure are marked
// orphaned in the journal.
func (s *Service) CreateVault(ctx context.Context, req CreateVaultRequest) (*CreateVaultResult, error) {
	if req.RequestID == "" {
		req.RequestID = logging.RequestID(ctx)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, req.RequestID)
	creationID := s.newID()
	log := s.log.With("vault_name", req.Name, "creation_id", creationID)
	log.Info(ctx, "create vault received", "files", len(req.Files))

	unlock, err := s.validate(req)
	if err != nil {
		log.Warn(ctx, "create vault failed", "stage", "received", "error", err)
		return nil, err
	}

	pinned := 0
	fail := func(stage string, err error) (*CreateVaultResult, error) {
		log.Warn(ctx, "create vault failed", "stage", stage, "error", err)
		if pinned > 0 {
			s.orphan(ctx, log, creationID)
		}
		return nil, err
	}

	manifest := make([]ManifestEntry, 0, len(req.Files))
	cids := make([]string, 0, len(req.Files))

	for i, f := range req.Files {
		log.Info(ctx, "uploading", "position", i+1, "total", len(req.Files), "file", f.Name)

		c, err := s.store.Upload(ctx, f.Data)
		if err != nil {
			return fail("uploading", fmt.Errorf("upload %s: %w", f.Name, err))
		}
		pinned++
		s.record(ctx, log, pinlog.Pin{
			CreationID: creationID,
			RequestID:  req.RequestID,
			Position:   i + 1,
			CID:        c,
			Size:       int64(len(f.Data)),
			PinnedAt:   s.now().UTC(),
		})

		manifest = append(manifest, ManifestEntry{OriginalName: f.Name, CID: c})
		cids = append(cids, c)
	}

	log.Info(ctx, "unlock time validated", "unlock_time", unlock, "unlock_at", FormatUnlockTime(unlock))

	tx, err := s.ledger.SimulateCreateVault(ctx, req.Name, cids, uint64(unlock))
	if err != nil {
		return fail("simulating", err)
	}
	log.Info(ctx, "transaction simulated", "gas", tx.Gas)

	log.Info(ctx, "create vault completed", "cids", cids)
	return &CreateVaultResult{Transaction: tx, Files: manifest, UnlockTime: unlock}, nil
}

func (s *Service) record(ctx context.Context, log logging.Logger, p pinlog.Pin) {
	if err := s.journal.RecordPinned(ctx, p); err != nil {
		log.Error(ctx, "pin journal write failed", "cid", p.CID, "error", err)
	}
}

func (s *Service) orphan(ctx context.Context, log logging.Logger, creationID string) {
	// the request may already be canceled; the journal write must still happen
	ctx = context.WithoutCancel(ctx)

	pins, err := s.journal.MarkOrphaned(ctx, creationID)
	if err != nil {
		log.Error(ctx, "pin journal write failed", "error", err)
		return
	}
	for _, p := range pins {
		log.Warn(ctx, "orphaned pin", "cid", p.CID, "position", p.Position)
	}
}

func (s *Service) VaultStatus(ctx context.Context, vaultID string) (StatusView, error) {
	id, err := ParseVaultID(vaultID)
	if err != nil {
		return StatusView{}, err
	}

	st, err := s.ledger.GetVaultStatus(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	unlock := st.UnlockTime
	if unlock == nil {
		unlock = new(big.Int)
	}
	return StatusView{IsOpen: st.IsOpen, UnlockTime: unlock.String()}, nil
}

func (s *Service) RetrieveTransaction(ctx context.Context, vaultID string) (*ledger.TxRequest, error) {
	id, err := ParseVaultID(vaultID)
	if err != nil {
		return nil, err
	}
	return s.ledger.SimulateRetrieveVault(ctx, id)
}

func (s *Service) DestroyTransaction(ctx context.Context, vaultID string) (*ledger.TxRequest, error) {
	id, err := ParseVaultID(vaultID)
	if err != nil {
		return nil, err
	}
	return s.ledger.SimulateDestroyVault(ctx, id)
}

// ListCIDs returns the decoded file set of a retrieve transaction. An empty
// set is not an error here.
func (s *Service) ListCIDs(ctx context.Context, txHash string) ([]string, error) {
	h, err := ParseTxHash(txHash)
	if err != nil {
		return nil, err
	}
	cids, err := s.ledger.DecodeRetrievedFiles(ctx, h)
	if err != nil {
		return nil, err
	}
	if cids == nil {
		cids = []string{}
	}
	return cids, nil
}

func (s *Service) ListVaults(ctx context.Context, owner string) ([]VaultView, error) {
	addr, err := ParseOwner(owner)
	if err != nil {
		return nil, err
	}

	summaries, err := s.ledger.GetVaultSummaries(ctx, addr)
	if err != nil {
		return nil, err
	}

	res := make([]VaultView, 0, len(summaries))
	for _, v := range summaries {
		res = append(res, VaultView{VaultID: hexutil.Encode(v.ID[:]), Name: v.Name})
	}
	return res, nil
}
