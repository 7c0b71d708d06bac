package signature

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	keyStateAdded = 1
	keyTypeEdDSA  = 1
)

// keyDataOf returns a (uint8 state, uint32 keyType) struct. A static tuple is
// ABI-encoded exactly like its flattened fields.
const keyRegistryABI = `[{
	"type": "function",
	"name": "keyDataOf",
	"stateMutability": "view",
	"inputs": [
		{"name": "fid", "type": "uint256"},
		{"name": "key", "type": "bytes"}
	],
	"outputs": [
		{"name": "state", "type": "uint8"},
		{"name": "keyType", "type": "uint32"}
	]
}]`

type KeyData struct {
	State   uint8
	KeyType uint32
}

func (d KeyData) IsActiveAppKey() bool {
	return d.State == keyStateAdded && d.KeyType == keyTypeEdDSA
}

type KeyRegistry interface {
	KeyDataOf(ctx context.Context, fid uint64, key []byte) (KeyData, error)
}

// ContractCaller is the read-only slice of ethclient.Client we need.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type ChainRegistry struct {
	caller  ContractCaller
	address common.Address
	abi     abi.ABI
}

func NewChainRegistry(caller ContractCaller, address string) (*ChainRegistry, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid key registry address %q", address)
	}
	parsed, err := abi.JSON(strings.NewReader(keyRegistryABI))
	if err != nil {
		return nil, err
	}
	return &ChainRegistry{caller, common.HexToAddress(address), parsed}, nil
}

func (r *ChainRegistry) KeyDataOf(ctx context.Context, fid uint64, key []byte) (KeyData, error) {
	input, err := r.abi.Pack("keyDataOf", new(big.Int).SetUint64(fid), key)
	if err != nil {
		return KeyData{}, err
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.address, Data: input}, nil)
	if err != nil {
		return KeyData{}, fmt.Errorf("call keyDataOf: %w", err)
	}

	values, err := r.abi.Unpack("keyDataOf", out)
	if err != nil {
		return KeyData{}, fmt.Errorf("unpack keyDataOf: %w", err)
	}
	if len(values) != 2 {
		return KeyData{}, fmt.Errorf("unexpected keyDataOf response: %d values", len(values))
	}
	state, ok := values[0].(uint8)
	if !ok {
		return KeyData{}, fmt.Errorf("unexpected keyDataOf state type %T", values[0])
	}
	keyType, ok := values[1].(uint32)
	if !ok {
		return KeyData{}, fmt.Errorf("unexpected keyDataOf keyType type %T", values[1])
	}
	return KeyData{State: state, KeyType: keyType}, nil
}
