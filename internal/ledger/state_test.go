package ledger_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/hushnetwork/token-factory/internal/ledger"
)

var (
	contractA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	contractB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestState_PutGet(t *testing.T) {
	s := ledger.NewState()

	s.Put(contractA, []byte("k1"), []byte("v1"))
	assert.Equal(t, []byte("v1"), s.Get(contractA, []byte("k1")))
	assert.True(t, s.Has(contractA, []byte("k1")))

	// Contract scoping: same key under another contract is independent
	assert.Nil(t, s.Get(contractB, []byte("k1")))
	assert.False(t, s.Has(contractB, []byte("k1")))

	s.Put(contractA, []byte("k1"), []byte("v2"))
	assert.Equal(t, []byte("v2"), s.Get(contractA, []byte("k1")))
}

func TestState_Delete(t *testing.T) {
	s := ledger.NewState()

	s.Put(contractA, []byte("k1"), []byte("v1"))
	s.Delete(contractA, []byte("k1"))

	assert.Nil(t, s.Get(contractA, []byte("k1")))
	assert.False(t, s.Has(contractA, []byte("k1")))

	// Deleting an absent key is a no-op
	s.Delete(contractA, []byte("missing"))
	assert.False(t, s.Has(contractA, []byte("missing")))
}

func TestState_IterateOrderAndPrefix(t *testing.T) {
	s := ledger.NewState()

	s.Put(contractA, []byte{0x01, 0x03}, []byte("c"))
	s.Put(contractA, []byte{0x01, 0x01}, []byte("a"))
	s.Put(contractA, []byte{0x01, 0x02}, []byte("b"))
	s.Put(contractA, []byte{0x02, 0x01}, []byte("other"))

	var keys [][]byte
	var values [][]byte
	s.Iterate(contractA, []byte{0x01}, func(key, value []byte) bool {
		keys = append(keys, key)
		values = append(values, value)
		return true
	})

	assert.Equal(t, [][]byte{{0x01, 0x01}, {0x01, 0x02}, {0x01, 0x03}}, keys)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, values)
}

func TestState_IterateEarlyStop(t *testing.T) {
	s := ledger.NewState()

	s.Put(contractA, []byte{0x01, 0x01}, []byte("a"))
	s.Put(contractA, []byte{0x01, 0x02}, []byte("b"))

	var visited int
	s.Iterate(contractA, []byte{0x01}, func(key, value []byte) bool {
		visited++
		return false
	})

	assert.Equal(t, 1, visited)
}

func TestState_Restore(t *testing.T) {
	s := ledger.NewState()

	s.Restore(ledger.StateEntry{Contract: contractA, Key: []byte("k1"), Value: []byte("v1")})
	s.Restore(ledger.StateEntry{Contract: contractB, Key: []byte("k2"), Value: []byte("v2")})

	assert.Equal(t, []byte("v1"), s.Get(contractA, []byte("k1")))
	assert.Equal(t, []byte("v2"), s.Get(contractB, []byte("k2")))
}
