package factory

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

// Registry storage layout. The global index maps a dense sequence number to
// a token address; records are keyed by address; the creator index keeps a
// dense per-creator sequence.
var (
	keyTokenCount      = []byte{0x07}
	prefixGlobalIndex  = []byte{0x10}
	prefixRecord       = []byte{0x11}
	prefixCreatorIndex = []byte{0x12}
	prefixCreatorCount = []byte{0x13}
	prefixModeParams   = []byte{0x14}
)

// maxPageSize caps a single registry listing
const maxPageSize = 100

func globalIndexKey(seq uint64) []byte {
	key := make([]byte, 0, len(prefixGlobalIndex)+8)
	key = append(key, prefixGlobalIndex...)
	return binary.BigEndian.AppendUint64(key, seq)
}

func recordKey(token common.Address) []byte {
	return append(append([]byte{}, prefixRecord...), token.Bytes()...)
}

func creatorIndexKey(creator common.Address, seq uint64) []byte {
	key := make([]byte, 0, len(prefixCreatorIndex)+common.AddressLength+8)
	key = append(key, prefixCreatorIndex...)
	key = append(key, creator.Bytes()...)
	return binary.BigEndian.AppendUint64(key, seq)
}

func creatorCountKey(creator common.Address) []byte {
	return append(append([]byte{}, prefixCreatorCount...), creator.Bytes()...)
}

func modeParamsKey(token common.Address) []byte {
	return append(append([]byte{}, prefixModeParams...), token.Bytes()...)
}

func manifestNameFor(seq uint64) string {
	return fmt.Sprintf("%s%d", domain.TemplateNamePrefix, seq)
}

func (f *Factory) tokenCount(tx *ledger.TxContext) uint64 {
	return tx.Storage(f.Address).GetBigInt(keyTokenCount).Uint64()
}

// TotalTokens returns the number of tokens ever created through the factory
func (f *Factory) TotalTokens(tx *ledger.TxContext) uint64 {
	return f.tokenCount(tx)
}

// register appends a token to the global and creator indexes and stores its
// record
func (f *Factory) register(tx *ledger.TxContext, seq uint64, record *domain.TokenRecord) error {
	store := tx.Storage(f.Address)
	store.Put(globalIndexKey(seq), record.Address.Bytes())
	store.PutBigInt(keyTokenCount, bigUint64(seq+1))

	creatorSeq := store.GetBigInt(creatorCountKey(record.Creator)).Uint64()
	store.Put(creatorIndexKey(record.Creator, creatorSeq), record.Address.Bytes())
	store.PutBigInt(creatorCountKey(record.Creator), bigUint64(creatorSeq+1))

	return f.putRecord(tx, record)
}

func (f *Factory) putRecord(tx *ledger.TxContext, record *domain.TokenRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}
	tx.Storage(f.Address).Put(recordKey(record.Address), data)
	return nil
}

// GetToken returns the registry record for a token address
func (f *Factory) GetToken(tx *ledger.TxContext, addr common.Address) (*domain.TokenRecord, error) {
	raw := tx.Storage(f.Address).Get(recordKey(addr))
	if len(raw) == 0 {
		return nil, domain.NotFoundf("token %s is not registered", addr.Hex())
	}
	var record domain.TokenRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token record: %w", err)
	}
	return &record, nil
}

// ListTokens returns one page of the global registry in creation order. An
// offset past the end yields an empty page; the page size is clamped.
func (f *Factory) ListTokens(tx *ledger.TxContext, offset, limit uint64) ([]*domain.TokenRecord, error) {
	limit = clampPageSize(limit)
	total := f.tokenCount(tx)

	records := make([]*domain.TokenRecord, 0, limit)
	for seq := offset; seq < total && uint64(len(records)) < limit; seq++ {
		addr := common.BytesToAddress(tx.Storage(f.Address).Get(globalIndexKey(seq)))
		record, err := f.GetToken(tx, addr)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// ListTokensByCreator returns one page of a creator's tokens in creation
// order
func (f *Factory) ListTokensByCreator(tx *ledger.TxContext, creator common.Address, offset, limit uint64) ([]*domain.TokenRecord, error) {
	limit = clampPageSize(limit)
	store := tx.Storage(f.Address)
	total := store.GetBigInt(creatorCountKey(creator)).Uint64()

	records := make([]*domain.TokenRecord, 0, limit)
	for seq := offset; seq < total && uint64(len(records)) < limit; seq++ {
		addr := common.BytesToAddress(store.Get(creatorIndexKey(creator, seq)))
		record, err := f.GetToken(tx, addr)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// GetModeParams returns the auxiliary parameters attached to the token's
// last mode change, or nil when none were stored
func (f *Factory) GetModeParams(tx *ledger.TxContext, addr common.Address) (domain.ModeParams, error) {
	if _, err := f.GetToken(tx, addr); err != nil {
		return nil, err
	}
	raw := tx.Storage(f.Address).Get(modeParamsKey(addr))
	if len(raw) == 0 {
		return nil, nil
	}
	var params domain.ModeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mode params: %w", err)
	}
	return params, nil
}

func (f *Factory) putModeParams(tx *ledger.TxContext, addr common.Address, params domain.ModeParams) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal mode params: %w", err)
	}
	tx.Storage(f.Address).Put(modeParamsKey(addr), data)
	return nil
}

// clampPageSize bounds a listing window. A zero limit stays zero and yields
// an empty page.
func clampPageSize(limit uint64) uint64 {
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func bigUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
