package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/logging"
	"github.com/dmitrijs2005/memoire/internal/server/ledger"
	"github.com/dmitrijs2005/memoire/internal/server/pinlog"
)

func newTestService(st *fakeStore, l *fakeLedger, j pinlog.Journal) *Service {
	return NewService(st, l, logging.Discard(), WithJournal(j), WithMaxFileSize(1<<10))
}

func TestCreateVault_SingleFile(t *testing.T) {
	st, l, j := newFakeStore(), &fakeLedger{}, pinlog.NewMemory()
	svc := newTestService(st, l, j)

	res, err := svc.CreateVault(context.Background(), CreateVaultRequest{
		Name:       "my-vault",
		UnlockTime: "2025-01-01T00:00:00Z",
		Files:      []File{{Name: "A.jpg", Data: []byte("jpeg")}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1735689600), res.UnlockTime)
	assert.Equal(t, []ManifestEntry{{OriginalName: "A.jpg", CID: "cid-1-jpeg"}}, res.Files)
	assert.Equal(t, "createVault", res.Transaction.FunctionName)

	assert.Equal(t, "my-vault", l.gotName)
	assert.Equal(t, uint64(1735689600), l.gotUnlock)
	assert.Equal(t, []string{"cid-1-jpeg"}, l.gotCIDs)

	orphans, _ := j.Orphaned(context.Background())
	assert.Empty(t, orphans)
}

func TestCreateVault_PreservesOrder(t *testing.T) {
	st, l := newFakeStore(), &fakeLedger{}
	svc := newTestService(st, l, pinlog.NewMemory())

	files := []File{{Name: "c.png", Data: []byte("3")}, {Name: "a.png", Data: []byte("1")}, {Name: "b.png", Data: []byte("2")}}
	res, err := svc.CreateVault(context.Background(), CreateVaultRequest{Name: "ordered", UnlockTime: "1735689600", Files: files})
	require.NoError(t, err)

	require.Len(t, res.Files, 3)
	for i, f := range files {
		assert.Equal(t, f.Name, res.Files[i].OriginalName)
		assert.Equal(t, res.Files[i].CID, l.gotCIDs[i])
	}
	assert.Equal(t, []string{"cid-1-3", "cid-2-1", "cid-3-2"}, l.gotCIDs)
}

func TestCreateVault_UploadFailureAborts(t *testing.T) {
	st, l, j := newFakeStore(), &fakeLedger{}, pinlog.NewMemory()
	st.failUpload[2] = appcommon.ErrStoreUnavailable
	svc := newTestService(st, l, j)

	res, err := svc.CreateVault(context.Background(), CreateVaultRequest{
		RequestID:  "req-1",
		Name:       "partial",
		UnlockTime: "2030-01-01",
		Files:      []File{{Name: "1", Data: []byte("a")}, {Name: "2", Data: []byte("b")}, {Name: "3", Data: []byte("c")}},
	})
	require.ErrorIs(t, err, appcommon.ErrStoreUnavailable)
	assert.Nil(t, res)
	assert.Equal(t, 2, st.uploads, "stops at the first failure")
	assert.Equal(t, 0, l.createCalls, "nothing is simulated")

	orphans, err := j.Orphaned(context.Background())
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "req-1", orphans[0].RequestID)
	assert.Equal(t, "cid-1-a", orphans[0].CID)
}

func TestCreateVault_RequestIDFromContext(t *testing.T) {
	st, l, j := newFakeStore(), &fakeLedger{}, pinlog.NewMemory()
	st.failUpload[2] = appcommon.ErrStoreRejected
	svc := newTestService(st, l, j)

	ctx := logging.WithRequestID(context.Background(), "ctx-req")
	_, err := svc.CreateVault(ctx, CreateVaultRequest{
		Name:       "from-ctx",
		UnlockTime: "2030-01-01",
		Files:      []File{{Name: "1", Data: []byte("a")}, {Name: "2", Data: []byte("b")}},
	})
	require.ErrorIs(t, err, appcommon.ErrStoreRejected)

	orphans, err := j.Orphaned(context.Background())
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "ctx-req", orphans[0].RequestID)
}

func TestCreateVault_SharedRequestIDKeepsLivePins(t *testing.T) {
	st, l, j := newFakeStore(), &fakeLedger{}, pinlog.NewMemory()
	svc := newTestService(st, l, j)
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("creation-%d", n) }

	const reqID = "6f1c8a2e-8d0b-4b43-9f2e-0c2d5a7b1e11"

	res, err := svc.CreateVault(context.Background(), CreateVaultRequest{
		RequestID: reqID, Name: "kept", UnlockTime: "2030-01-01", Files: []File{{Name: "1", Data: []byte("a")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cid-1-a", res.Files[0].CID)

	st.failUpload[3] = appcommon.ErrStoreUnavailable
	_, err = svc.CreateVault(context.Background(), CreateVaultRequest{
		RequestID: reqID, Name: "lost", UnlockTime: "2030-01-01",
		Files: []File{{Name: "1", Data: []byte("b")}, {Name: "2", Data: []byte("c")}},
	})
	require.ErrorIs(t, err, appcommon.ErrStoreUnavailable)

	orphans, err := j.Orphaned(context.Background())
	require.NoError(t, err)
	require.Len(t, orphans, 1, "the successful vault's pin stays live")
	assert.Equal(t, "cid-2-b", orphans[0].CID)
	assert.Equal(t, "creation-2", orphans[0].CreationID)
	assert.Equal(t, reqID, orphans[0].RequestID)
}

func TestCreateVault_SimulationRevert(t *testing.T) {
	st, j := newFakeStore(), pinlog.NewMemory()
	l := &fakeLedger{createErr: &appcommon.RevertError{Op: "createVault", Reason: "Vault name taken"}}
	svc := newTestService(st, l, j)

	res, err := svc.CreateVault(context.Background(), CreateVaultRequest{
		Name: "dup", UnlockTime: "2030-01-01", Files: []File{{Name: "x", Data: []byte("x")}, {Name: "y", Data: []byte("y")}},
	})
	require.ErrorIs(t, err, appcommon.ErrSimulationReverted)
	assert.ErrorContains(t, err, "Vault name taken")
	assert.Nil(t, res)

	orphans, _ := j.Orphaned(context.Background())
	assert.Len(t, orphans, 2)
}

func TestCreateVault_InvalidInput(t *testing.T) {
	six := make([]File, 6)
	for i := range six {
		six[i] = File{Name: "f", Data: []byte("d")}
	}
	one := []File{{Name: "f", Data: []byte("d")}}

	tests := []struct {
		name string
		req  CreateVaultRequest
		want error
	}{
		{"no files", CreateVaultRequest{Name: "ok", UnlockTime: "2030-01-01"}, appcommon.ErrInvalidInput},
		{"too many files", CreateVaultRequest{Name: "ok", UnlockTime: "2030-01-01", Files: six}, appcommon.ErrInvalidInput},
		{"bad name", CreateVaultRequest{Name: "Not OK", UnlockTime: "2030-01-01", Files: one}, appcommon.ErrInvalidInput},
		{"long name", CreateVaultRequest{Name: strings.Repeat("a", 33), UnlockTime: "2030-01-01", Files: one}, appcommon.ErrInvalidInput},
		{"bad time", CreateVaultRequest{Name: "ok", UnlockTime: "someday", Files: one}, appcommon.ErrInvalidUnlockTime},
		{"file too large", CreateVaultRequest{Name: "ok", UnlockTime: "2030-01-01", Files: []File{{Name: "big", Data: make([]byte, 2<<10)}}}, appcommon.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, l := newFakeStore(), &fakeLedger{}
			svc := newTestService(st, l, pinlog.NewMemory())

			_, err := svc.CreateVault(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, st.uploads)
			assert.Equal(t, 0, l.createCalls)
		})
	}
}

type brokenJournal struct{ pinlog.Memory }

func (*brokenJournal) RecordPinned(context.Context, pinlog.Pin) error { return errors.New("db down") }

func TestCreateVault_JournalFailureIgnored(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeLedger{}, &brokenJournal{})

	res, err := svc.CreateVault(context.Background(), CreateVaultRequest{
		Name: "ok", UnlockTime: "2030-01-01", Files: []File{{Name: "f", Data: []byte("d")}},
	})
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)
}

func TestVaultStatus(t *testing.T) {
	huge, _ := new(big.Int).SetString("99999999999999999999999999", 10)
	l := &fakeLedger{status: ledger.VaultStatus{IsOpen: true, UnlockTime: huge}}
	svc := newTestService(newFakeStore(), l, pinlog.NewMemory())

	id := "0x" + strings.Repeat("1f", 32)
	st, err := svc.VaultStatus(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusView{IsOpen: true, UnlockTime: "99999999999999999999999999"}, st)

	// repeated reads with no chain change agree
	again, err := svc.VaultStatus(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, st, again)

	l.statusErr = appcommon.ErrVaultNotFound
	_, err = svc.VaultStatus(context.Background(), id)
	assert.ErrorIs(t, err, appcommon.ErrVaultNotFound)

	_, err = svc.VaultStatus(context.Background(), "nope")
	assert.ErrorIs(t, err, appcommon.ErrInvalidInput)
}

func TestRetrieveAndDestroyTransaction(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeLedger{}, pinlog.NewMemory())
	id := "0x" + strings.Repeat("00", 31) + "07"

	tx, err := svc.RetrieveTransaction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "retrieveVault", tx.FunctionName)
	assert.Equal(t, [32]byte{31: 7}, tx.Args[0])

	tx, err = svc.DestroyTransaction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "destroyVault", tx.FunctionName)

	_, err = svc.RetrieveTransaction(context.Background(), "0x07")
	assert.ErrorIs(t, err, appcommon.ErrInvalidInput)
}

func TestListCIDs(t *testing.T) {
	l := &fakeLedger{}
	svc := newTestService(newFakeStore(), l, pinlog.NewMemory())
	hash := "0x" + strings.Repeat("a", 64)

	cids, err := svc.ListCIDs(context.Background(), hash)
	require.NoError(t, err)
	assert.NotNil(t, cids)
	assert.Empty(t, cids)

	l.decoded = []string{"b", "a"}
	cids, err = svc.ListCIDs(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, cids)

	l.decodeErr = appcommon.ErrTransactionNotMined
	_, err = svc.ListCIDs(context.Background(), hash)
	assert.ErrorIs(t, err, appcommon.ErrTransactionNotMined)
}

func TestListVaults(t *testing.T) {
	l := &fakeLedger{summaries: []ledger.VaultSummary{{ID: [32]byte{0x01}, Name: "first"}}}
	svc := newTestService(newFakeStore(), l, pinlog.NewMemory())

	vaults, err := svc.ListVaults(context.Background(), "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	require.NoError(t, err)
	require.Len(t, vaults, 1)
	assert.Equal(t, "0x01"+strings.Repeat("00", 31), vaults[0].VaultID)
	assert.Equal(t, "first", vaults[0].Name)

	l.summaries = nil
	vaults, err = svc.ListVaults(context.Background(), "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	require.NoError(t, err)
	assert.NotNil(t, vaults)
}
