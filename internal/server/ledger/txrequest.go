package ledger

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxRequest is an unsigned, simulated contract call. It has no
// sender field: whoever receives it signs with their own account.
type TxRequest struct {
	Address              common.Address
	FunctionName         string
	Args                 []any
	Data                 []byte
	Gas                  uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Value                *big.Int
	ChainID              *big.Int
}

type txRequestJSON struct {
	Address              string `json:"address"`
	FunctionName         string `json:"functionName"`
	Args                 []any  `json:"args"`
	Data                 string `json:"data"`
	Gas                  string `json:"gas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	Value                string `json:"value"`
	ChainID              string `json:"chainId"`
}

// MarshalJSON renders integers as decimal strings and byte values as 0x-hex,
// so no consumer ever reads them through a float.
func (t TxRequest) MarshalJSON() ([]byte, error) {
	args := make([]any, len(t.Args))
	for i, a := range t.Args {
		v, err := jsonArg(a)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		args[i] = v
	}

	return json.Marshal(txRequestJSON{
		Address:              t.Address.Hex(),
		FunctionName:         t.FunctionName,
		Args:                 args,
		Data:                 hexutil.Encode(t.Data),
		Gas:                  new(big.Int).SetUint64(t.Gas).String(),
		MaxFeePerGas:         decimal(t.MaxFeePerGas),
		MaxPriorityFeePerGas: decimal(t.MaxPriorityFeePerGas),
		Value:                decimal(t.Value),
		ChainID:              decimal(t.ChainID),
	})
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func jsonArg(a any) (any, error) {
	switch v := a.(type) {
	case string, bool:
		return v, nil
	case []string:
		if v == nil {
			return []string{}, nil
		}
		return v, nil
	case *big.Int:
		return decimal(v), nil
	case uint64:
		return new(big.Int).SetUint64(v).String(), nil
	case [32]byte:
		return hexutil.Encode(v[:]), nil
	case []byte:
		return hexutil.Encode(v), nil
	case common.Address:
		return v.Hex(), nil
	case common.Hash:
		return v.Hex(), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", a)
	}
}
