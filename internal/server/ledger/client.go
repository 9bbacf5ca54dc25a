// Package ledger talks to the vault contract: it simulates state-changing
// calls into unsigned transaction requests, runs read-only queries and
// decodes events from mined transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
)

// Backend is the subset of *ethclient.Client the ledger client needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appcommon.ErrLedgerUnavailable, err)
	}
	return c, nil
}

type Options struct {
	Contract            common.Address
	Operator            common.Address
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

// Client is safe for concurrent use. The only state it keeps between calls
// is the cached chain id.
type Client struct {
	backend  Backend
	abi      abi.ABI
	contract common.Address
	operator common.Address

	receiptTimeout time.Duration
	pollInterval   time.Duration

	mu      sync.Mutex
	chainID *big.Int
}

func New(backend Backend, opts Options) (*Client, error) {
	parsed, err := VaultABI()
	if err != nil {
		return nil, fmt.Errorf("parse vault abi: %w", err)
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = 2 * time.Minute
	}
	if opts.ReceiptPollInterval <= 0 {
		opts.ReceiptPollInterval = 2 * time.Second
	}
	return &Client{
		backend:        backend,
		abi:            parsed,
		contract:       opts.Contract,
		operator:       opts.Operator,
		receiptTimeout: opts.ReceiptTimeout,
		pollInterval:   opts.ReceiptPollInterval,
	}, nil
}

// Operator returns the address simulations run under.
func (c *Client) Operator() common.Address {
	return c.operator
}

func (c *Client) SimulateCreateVault(ctx context.Context, name string, cids []string, unlockTime uint64) (*TxRequest, error) {
	return c.simulate(ctx, methodCreateVault, name, cids, new(big.Int).SetUint64(unlockTime))
}

func (c *Client) SimulateRetrieveVault(ctx context.Context, vaultID [32]byte) (*TxRequest, error) {
	return c.simulate(ctx, methodRetrieveVault, vaultID)
}

func (c *Client) SimulateDestroyVault(ctx context.Context, vaultID [32]byte) (*TxRequest, error) {
	return c.simulate(ctx, methodDestroyVault, vaultID)
}

// simulate dry-runs method under the operator account and, when the call
// would succeed, prices it for an EIP-1559 transaction.
func (c *Client) simulate(ctx context.Context, method string, args ...any) (*TxRequest, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", appcommon.ErrInvalidInput, method, err)
	}

	msg := ethereum.CallMsg{From: c.operator, To: &c.contract, Data: data}

	if _, err := c.backend.CallContract(ctx, msg, nil); err != nil {
		return nil, callError(method, err)
	}

	gas, err := c.backend.EstimateGas(ctx, msg)
	if err != nil {
		return nil, callError(method, err)
	}

	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, unavailable("suggest gas tip", err)
	}

	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, unavailable("latest header", err)
	}

	chainID, err := c.chain(ctx)
	if err != nil {
		return nil, err
	}

	maxFee := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		maxFee.Add(maxFee, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	return &TxRequest{
		Address:              c.contract,
		FunctionName:         method,
		Args:                 args,
		Data:                 data,
		Gas:                  gas,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
		Value:                new(big.Int),
		ChainID:              chainID,
	}, nil
}

func (c *Client) chain(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, unavailable("chain id", err)
	}
	c.chainID = id
	return id, nil
}

type VaultStatus struct {
	IsOpen     bool
	UnlockTime *big.Int
}

// GetVaultStatus reads the vault's lock state. A zero unlock time means the
// contract has no such vault.
func (c *Client) GetVaultStatus(ctx context.Context, vaultID [32]byte) (VaultStatus, error) {
	out, err := c.view(ctx, methodGetVaultStatus, vaultID)
	if err != nil {
		if errors.Is(err, appcommon.ErrSimulationReverted) {
			return VaultStatus{}, fmt.Errorf("%w: %w", appcommon.ErrVaultNotFound, err)
		}
		return VaultStatus{}, err
	}

	if len(out) != 2 {
		return VaultStatus{}, fmt.Errorf("%s: unexpected output arity %d", methodGetVaultStatus, len(out))
	}
	isOpen, ok1 := out[0].(bool)
	unlock, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return VaultStatus{}, fmt.Errorf("%s: unexpected output types %T, %T", methodGetVaultStatus, out[0], out[1])
	}
	if unlock.Sign() == 0 {
		return VaultStatus{}, appcommon.ErrVaultNotFound
	}
	return VaultStatus{IsOpen: isOpen, UnlockTime: unlock}, nil
}

type VaultSummary struct {
	ID   [32]byte
	Name string
}

// GetVaultSummaries lists the vaults owned by owner, in contract order.
func (c *Client) GetVaultSummaries(ctx context.Context, owner common.Address) ([]VaultSummary, error) {
	out, err := c.view(ctx, methodGetVaultSummaries, owner)
	if err != nil {
		return nil, err
	}

	if len(out) != 2 {
		return nil, fmt.Errorf("%s: unexpected output arity %d", methodGetVaultSummaries, len(out))
	}
	ids, ok1 := out[0].([][32]byte)
	names, ok2 := out[1].([]string)
	if !ok1 || !ok2 || len(ids) != len(names) {
		return nil, fmt.Errorf("%s: malformed output", methodGetVaultSummaries)
	}

	res := make([]VaultSummary, len(ids))
	for i := range ids {
		res[i] = VaultSummary{ID: ids[i], Name: names[i]}
	}
	return res, nil
}

// BlockNumber reports the latest block height. The health probe uses it.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, unavailable("block number", err)
	}
	return n, nil
}

func (c *Client) view(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", appcommon.ErrInvalidInput, method, err)
	}

	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, callError(method, err)
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: unpack: %w", method, err)
	}
	return out, nil
}

// callError turns an RPC failure into a RevertError when the node reports
// an execution revert, and into ErrLedgerUnavailable otherwise.
func callError(op string, err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := revertReason(dataErr.ErrorData()); ok {
			return &appcommon.RevertError{Op: op, Reason: reason}
		}
	}
	msg := err.Error()
	if i := strings.Index(msg, revertedMsg); i >= 0 {
		reason := strings.TrimPrefix(msg[i+len(revertedMsg):], ":")
		return &appcommon.RevertError{Op: op, Reason: strings.TrimSpace(reason)}
	}
	return unavailable(op, err)
}

const revertedMsg = "execution reverted"

func revertReason(data any) (string, bool) {
	s, ok := data.(string)
	if !ok {
		return "", false
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return "", false
	}
	reason, err := abi.UnpackRevert(b)
	if err != nil {
		// custom error or bare revert: still a revert, no readable reason
		return "", len(b) == 0 || len(b) >= 4
	}
	return reason, true
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, appcommon.ErrLedgerUnavailable, err)
}
