package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hushnetwork/token-factory/internal/adapter"
	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/logger"
	"github.com/hushnetwork/token-factory/internal/messaging"
)

// installedKey marks a contract address as occupied by a deployed instance
var installedKey = []byte{0xFE}

// Persister flushes a committed transaction's dirty key set to durable
// storage in one unit of work
//
//go:generate mockgen -source=env.go -destination=../mocks/persister.go -package=mocks -mock_names=Persister=MockPersister
type Persister interface {
	// Apply writes the entries of one committed transaction atomically
	Apply(ctx context.Context, entries []StateEntry) error
}

// PaymentHandler is a contract's callback for inbound native fee-currency
// settlements. A nil payload is a non-creation receipt and must be accepted
// silently.
type PaymentHandler interface {
	OnPayment(tx *TxContext, payer common.Address, amount *big.Int, payload []any) error
}

// Env is the execution environment all contracts run against. Every external
// call is one atomic unit: either all storage writes commit or none do.
// Transactions are fully serialized; there is no partial visibility of
// in-progress mutations.
type Env struct {
	mu        sync.Mutex
	state     *State
	handlers  map[common.Address]PaymentHandler
	clock     adapter.Clock
	persister Persister
	publisher messaging.Publisher
}

// Options configures an execution environment
type Options struct {
	Clock     adapter.Clock
	Persister Persister           // optional; nil runs in-memory only
	Publisher messaging.Publisher // optional; nil drops events
}

// NewEnv creates a new execution environment
func NewEnv(opts Options) *Env {
	clock := opts.Clock
	if clock == nil {
		clock = adapter.NewClock()
	}
	return &Env{
		state:     NewState(),
		handlers:  make(map[common.Address]PaymentHandler),
		clock:     clock,
		persister: opts.Persister,
		publisher: opts.Publisher,
	}
}

// RegisterPaymentHandler registers a contract's settlement callback
func (e *Env) RegisterPaymentHandler(addr common.Address, handler PaymentHandler) {
	e.handlers[addr] = handler
}

// Hydrate loads previously committed state during boot. It must be called
// before the environment starts serving transactions.
func (e *Env) Hydrate(entries []StateEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, entry := range entries {
		e.state.Restore(entry)
	}
}

// Transact runs fn as one atomic, serialized transaction. signers is the set
// of addresses whose signatures were verified upstream; they satisfy witness
// checks inside the call. On error every storage write is rolled back and no
// event is published.
func (e *Env) Transact(ctx context.Context, signers []common.Address, fn func(tx *TxContext) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.begin()
	tx := &TxContext{env: e, ctx: ctx, signers: signers}

	if err := fn(tx); err != nil {
		e.state.rollback()
		return err
	}

	if e.persister != nil {
		if err := e.persister.Apply(ctx, e.state.pending()); err != nil {
			e.state.rollback()
			return fmt.Errorf("failed to persist committed state: %w", err)
		}
	}
	e.state.commit()

	e.publishEvents(ctx, tx.events)
	return nil
}

// Credit mints native fee currency to an account, as the external settlement
// primitive would on an inbound deposit. Crediting a registered contract does
// not trigger its payment callback (there is no payer).
func (e *Env) Credit(ctx context.Context, account common.Address, amount *big.Int) error {
	if domain.IsZeroAddress(account) {
		return domain.Validationf("cannot credit the zero address")
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.Validationf("credit amount must be positive")
	}
	return e.Transact(ctx, nil, func(tx *TxContext) error {
		balance := tx.NativeBalance(account)
		tx.setNativeBalance(account, new(big.Int).Add(balance, amount))
		return nil
	})
}

// View runs fn with read access to committed state, serialized against
// transactions
func (e *Env) View(ctx context.Context, fn func(tx *TxContext) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	// A read-only context journals nothing; any mutation through it is a
	// programming error and would corrupt committed state.
	tx := &TxContext{env: e, ctx: ctx}
	return fn(tx)
}

// publishEvents delivers buffered events fire-and-forget; failures are
// logged and dropped
func (e *Env) publishEvents(ctx context.Context, events []*domain.Event) {
	if e.publisher == nil {
		return
	}
	for _, event := range events {
		if err := e.publisher.PublishEvent(ctx, event); err != nil {
			logger.Error(err,
				zap.String("event_type", string(event.Type)),
				zap.String("contract", event.Contract.Hex()))
		}
	}
}

// TxContext is the per-transaction execution context: verified signers, the
// contract caller stack, buffered events, and access to state and the native
// fee currency.
type TxContext struct {
	env     *Env
	ctx     context.Context
	signers []common.Address
	callers []common.Address
	events  []*domain.Event
}

// Context returns the request context the transaction runs under
func (tx *TxContext) Context() context.Context {
	return tx.ctx
}

// CheckWitness reports whether the transaction carries a verified signature
// for addr
func (tx *TxContext) CheckWitness(addr common.Address) bool {
	if domain.IsZeroAddress(addr) {
		return false
	}
	for _, signer := range tx.signers {
		if signer == addr {
			return true
		}
	}
	return false
}

// CallingAccount returns the contract on top of the caller stack, or the
// zero address for a direct (entry) call
func (tx *TxContext) CallingAccount() common.Address {
	if len(tx.callers) == 0 {
		return domain.ZeroAddress
	}
	return tx.callers[len(tx.callers)-1]
}

// CallAs runs fn with contract pushed onto the caller stack, modeling a
// nested contract-to-contract call
func (tx *TxContext) CallAs(contract common.Address, fn func() error) error {
	tx.callers = append(tx.callers, contract)
	defer func() { tx.callers = tx.callers[:len(tx.callers)-1] }()
	return fn()
}

// Now returns the transaction timestamp
func (tx *TxContext) Now() time.Time {
	return tx.env.clock.Now()
}

// Emit buffers a lifecycle event for publication on commit
func (tx *TxContext) Emit(eventType domain.EventType, contract common.Address, attrs map[string]any) {
	tx.events = append(tx.events, &domain.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Contract:   contract,
		Timestamp:  tx.env.clock.Now(),
		Attributes: attrs,
	})
}

// Storage returns the key-value store scoped to the given contract
func (tx *TxContext) Storage(contract common.Address) *Storage {
	return &Storage{tx: tx, contract: contract}
}

// Deploy installs a new contract instance and returns its address, derived
// deterministically from (deployer, codeHash, manifestName). Deploying to an
// occupied address fails.
func (tx *TxContext) Deploy(deployer common.Address, codeHash []byte, manifestName string) (common.Address, error) {
	if len(codeHash) == 0 {
		return domain.ZeroAddress, domain.Validationf("empty code template")
	}
	addr := DeriveAddress(deployer, codeHash, manifestName)
	if tx.env.state.Has(addr, installedKey) {
		return domain.ZeroAddress, domain.Statef("contract already deployed at %s", addr.Hex())
	}
	tx.env.state.Put(addr, installedKey, []byte{1})
	return addr, nil
}

// IsDeployed checks whether a contract instance occupies the address
func (tx *TxContext) IsDeployed(addr common.Address) bool {
	return tx.env.state.Has(addr, installedKey)
}

// DeriveAddress computes the deterministic deployment address for
// (deployer, codeHash, manifestName)
func DeriveAddress(deployer common.Address, codeHash []byte, manifestName string) common.Address {
	h := crypto.Keccak256(deployer.Bytes(), codeHash, []byte(manifestName))
	return common.BytesToAddress(h[12:])
}

// Storage is a contract-scoped view over the ledger state
type Storage struct {
	tx       *TxContext
	contract common.Address
}

// Get returns the value stored under key, or nil if absent
func (s *Storage) Get(key []byte) []byte {
	return s.tx.env.state.Get(s.contract, key)
}

// Has reports whether key is present
func (s *Storage) Has(key []byte) bool {
	return s.tx.env.state.Has(s.contract, key)
}

// Put stores value under key
func (s *Storage) Put(key, value []byte) {
	s.tx.env.state.Put(s.contract, key, value)
}

// Delete removes key if present
func (s *Storage) Delete(key []byte) {
	s.tx.env.state.Delete(s.contract, key)
}

// Iterate visits every key with the given prefix in lexicographic order
func (s *Storage) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	s.tx.env.state.Iterate(s.contract, prefix, fn)
}

// GetBigInt reads a big integer value, defaulting to zero when absent
func (s *Storage) GetBigInt(key []byte) *big.Int {
	raw := s.Get(key)
	if len(raw) == 0 {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(raw)
}

// PutBigInt stores a non-negative big integer value; a zero value deletes
// the key
func (s *Storage) PutBigInt(key []byte, v *big.Int) {
	if v == nil || v.Sign() == 0 {
		s.Delete(key)
		return
	}
	s.Put(key, v.Bytes())
}
