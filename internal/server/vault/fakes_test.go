package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/server/ledger"
)

type fakeStore struct {
	mu         sync.Mutex
	data       map[string][]byte
	uploads    int
	failUpload map[int]error
	failFetch  map[string]error
	opened     int
	closed     int
	onFetch    func(cid string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, failUpload: map[int]error{}, failFetch: map[string]error{}}
}

func (f *fakeStore) Upload(ctx context.Context, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if err, ok := f.failUpload[f.uploads]; ok {
		return "", err
	}
	c := fmt.Sprintf("cid-%d-%s", f.uploads, data)
	f.data[c] = bytes.Clone(data)
	return c, nil
}

func (f *fakeStore) Fetch(ctx context.Context, cid string) (io.ReadCloser, error) {
	if f.onFetch != nil {
		f.onFetch(cid)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFetch[cid]; ok {
		return nil, err
	}
	d, ok := f.data[cid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appcommon.ErrContentNotFound, cid)
	}
	f.opened++
	return &trackedReader{Reader: bytes.NewReader(d), onClose: func() {
		f.mu.Lock()
		f.closed++
		f.mu.Unlock()
	}}, nil
}

func (f *fakeStore) put(cid, content string) {
	f.data[cid] = []byte(content)
}

type trackedReader struct {
	io.Reader
	onClose func()
}

func (r *trackedReader) Close() error {
	r.onClose()
	return nil
}

type fakeLedger struct {
	createCalls int
	gotName     string
	gotCIDs     []string
	gotUnlock   uint64
	createErr   error

	status    ledger.VaultStatus
	statusErr error

	summaries []ledger.VaultSummary

	decoded   []string
	decodeErr error
}

func (l *fakeLedger) SimulateCreateVault(ctx context.Context, name string, cids []string, unlock uint64) (*ledger.TxRequest, error) {
	l.createCalls++
	l.gotName, l.gotCIDs, l.gotUnlock = name, cids, unlock
	if l.createErr != nil {
		return nil, l.createErr
	}
	return &ledger.TxRequest{FunctionName: "createVault", Gas: 100}, nil
}

func (l *fakeLedger) SimulateRetrieveVault(ctx context.Context, id [32]byte) (*ledger.TxRequest, error) {
	return &ledger.TxRequest{FunctionName: "retrieveVault", Args: []any{id}}, nil
}

func (l *fakeLedger) SimulateDestroyVault(ctx context.Context, id [32]byte) (*ledger.TxRequest, error) {
	return &ledger.TxRequest{FunctionName: "destroyVault", Args: []any{id}}, nil
}

func (l *fakeLedger) GetVaultStatus(ctx context.Context, id [32]byte) (ledger.VaultStatus, error) {
	return l.status, l.statusErr
}

func (l *fakeLedger) GetVaultSummaries(ctx context.Context, owner common.Address) ([]ledger.VaultSummary, error) {
	return l.summaries, nil
}

func (l *fakeLedger) DecodeRetrievedFiles(ctx context.Context, h common.Hash) ([]string, error) {
	return l.decoded, l.decodeErr
}
