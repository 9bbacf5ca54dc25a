package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
)

// DecodeRetrievedFiles waits for txHash to be mined and returns the CIDs of
// the first VaultRetrieved event it emitted, in emitted order. A mined
// transaction without such an event yields an empty slice and no error.
func (c *Client) DecodeRetrievedFiles(ctx context.Context, txHash common.Hash) ([]string, error) {
	receipt, err := c.waitReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", appcommon.ErrTransactionReverted, txHash.Hex())
	}

	for _, l := range receipt.Logs {
		if cids, ok := c.decodeRetrieved(l); ok {
			return cids, nil
		}
	}
	return []string{}, nil
}

func (c *Client) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(waitCtx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) && waitCtx.Err() == nil {
			return nil, unavailable("transaction receipt", err)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s after %s", appcommon.ErrTransactionNotMined, txHash.Hex(), c.receiptTimeout)
		case <-ticker.C:
		}
	}
}

// decodeRetrieved tries to read l as a VaultRetrieved event from the vault
// contract. Anything else, including malformed data, is reported as no match.
func (c *Client) decodeRetrieved(l *types.Log) ([]string, bool) {
	ev, ok := c.abi.Events[eventVaultRetrieved]
	if !ok || l == nil {
		return nil, false
	}
	if l.Address != c.contract || len(l.Topics) != 3 || l.Topics[0] != ev.ID {
		return nil, false
	}

	out, err := c.abi.Unpack(eventVaultRetrieved, l.Data)
	if err != nil || len(out) != 1 {
		return nil, false
	}
	cids, ok := out[0].([]string)
	if !ok {
		return nil, false
	}
	if cids == nil {
		cids = []string{}
	}
	return cids, true
}
