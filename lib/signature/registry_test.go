package signature

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	out []byte
	err error

	msg ethereum.CallMsg
}

func (f *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.msg = call
	return f.out, f.err
}

func packKeyData(t *testing.T, state uint8, keyType uint32) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(keyRegistryABI))
	require.NoError(t, err)
	out, err := parsed.Methods["keyDataOf"].Outputs.Pack(state, keyType)
	require.NoError(t, err)
	return out
}

const registryAddress = "0x00000000Fc1237824fb747aBDE0FF18990E59b7e"

func TestChainRegistry_KeyDataOf(t *testing.T) {
	caller := &fakeCaller{out: packKeyData(t, 1, 1)}
	reg, err := NewChainRegistry(caller, registryAddress)
	require.NoError(t, err)

	key := make([]byte, 32)
	data, err := reg.KeyDataOf(context.Background(), 468, key)
	require.NoError(t, err)
	assert.Equal(t, KeyData{State: 1, KeyType: 1}, data)
	assert.True(t, data.IsActiveAppKey())

	require.NotNil(t, caller.msg.To)
	assert.Equal(t, common.HexToAddress(registryAddress), *caller.msg.To)
	// 4-byte selector, fid word, offset word, length word, one padded key word.
	assert.Len(t, caller.msg.Data, 4+32*4)
}

func TestChainRegistry_RevokedKey(t *testing.T) {
	reg, err := NewChainRegistry(&fakeCaller{out: packKeyData(t, 2, 1)}, registryAddress)
	require.NoError(t, err)

	data, err := reg.KeyDataOf(context.Background(), 468, make([]byte, 32))
	require.NoError(t, err)
	assert.False(t, data.IsActiveAppKey())
}

func TestChainRegistry_Errors(t *testing.T) {
	reg, err := NewChainRegistry(&fakeCaller{err: errors.New("connection refused")}, registryAddress)
	require.NoError(t, err)
	_, err = reg.KeyDataOf(context.Background(), 468, make([]byte, 32))
	assert.ErrorContains(t, err, "connection refused")

	reg, err = NewChainRegistry(&fakeCaller{out: []byte{0x01}}, registryAddress)
	require.NoError(t, err)
	_, err = reg.KeyDataOf(context.Background(), 468, make([]byte, 32))
	assert.Error(t, err)
}

func TestNewChainRegistry_BadAddress(t *testing.T) {
	_, err := NewChainRegistry(&fakeCaller{}, "not-an-address")
	assert.Error(t, err)
}
