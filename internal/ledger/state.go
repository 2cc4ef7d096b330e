package ledger

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// StateEntry is one committed key-value mutation, flushed to the persister
// after a successful transaction
type StateEntry struct {
	Contract common.Address
	Key      []byte
	Value    []byte
	Deleted  bool
}

// journalEntry records the prior value of a key so an aborted transaction can
// restore it
type journalEntry struct {
	contract common.Address
	key      string
	prev     []byte
	existed  bool
}

type dirtyKey struct {
	contract common.Address
	key      string
}

// State is the ledger's key-value store: an ordered byte-key to byte-value
// map scoped per contract instance. Mutations inside a transaction are
// journaled; abort restores prior values in reverse order, commit discards
// the journal and reports the dirty key set.
type State struct {
	contracts map[common.Address]map[string][]byte
	journal   []journalEntry
	dirty     map[dirtyKey]struct{}
}

// NewState creates an empty ledger state
func NewState() *State {
	return &State{
		contracts: make(map[common.Address]map[string][]byte),
	}
}

// Get returns the value stored under key in the contract's scope, or nil
func (s *State) Get(contract common.Address, key []byte) []byte {
	store, ok := s.contracts[contract]
	if !ok {
		return nil
	}
	return store[string(key)]
}

// Has checks if a key exists in the contract's scope
func (s *State) Has(contract common.Address, key []byte) bool {
	store, ok := s.contracts[contract]
	if !ok {
		return false
	}
	_, ok = store[string(key)]
	return ok
}

// Put stores value under key in the contract's scope
func (s *State) Put(contract common.Address, key, value []byte) {
	store, ok := s.contracts[contract]
	if !ok {
		store = make(map[string][]byte)
		s.contracts[contract] = store
	}
	k := string(key)
	s.record(contract, k, store)
	store[k] = bytes.Clone(value)
}

// Delete removes key from the contract's scope
func (s *State) Delete(contract common.Address, key []byte) {
	store, ok := s.contracts[contract]
	if !ok {
		return
	}
	k := string(key)
	if _, exists := store[k]; !exists {
		return
	}
	s.record(contract, k, store)
	delete(store, k)
}

// Iterate walks the contract's keys with the given prefix in lexicographic
// order, stopping early when fn returns false
func (s *State) Iterate(contract common.Address, prefix []byte, fn func(key, value []byte) bool) {
	store, ok := s.contracts[contract]
	if !ok {
		return
	}
	keys := make([]string, 0, len(store))
	for k := range store {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), store[k]) {
			return
		}
	}
}

// Restore loads a committed entry during boot-time hydration; it must not be
// called inside a transaction
func (s *State) Restore(entry StateEntry) {
	if entry.Deleted {
		return
	}
	store, ok := s.contracts[entry.Contract]
	if !ok {
		store = make(map[string][]byte)
		s.contracts[entry.Contract] = store
	}
	store[string(entry.Key)] = bytes.Clone(entry.Value)
}

func (s *State) record(contract common.Address, key string, store map[string][]byte) {
	if s.journal == nil && s.dirty == nil {
		// Mutation outside a transaction (genesis/bootstrap); nothing to track.
		return
	}
	if _, seen := s.dirty[dirtyKey{contract, key}]; !seen {
		prev, existed := store[key]
		s.journal = append(s.journal, journalEntry{
			contract: contract,
			key:      key,
			prev:     bytes.Clone(prev),
			existed:  existed,
		})
		s.dirty[dirtyKey{contract, key}] = struct{}{}
	}
}

// begin starts journaling mutations
func (s *State) begin() {
	s.journal = s.journal[:0]
	s.dirty = make(map[dirtyKey]struct{})
}

// rollback restores every journaled key to its pre-transaction value
func (s *State) rollback() {
	for i := len(s.journal) - 1; i >= 0; i-- {
		e := s.journal[i]
		store := s.contracts[e.contract]
		if e.existed {
			if store == nil {
				store = make(map[string][]byte)
				s.contracts[e.contract] = store
			}
			store[e.key] = e.prev
		} else if store != nil {
			delete(store, e.key)
		}
	}
	s.journal = nil
	s.dirty = nil
}

// pending returns the transaction's dirty set as state entries reflecting the
// current (post-mutation) values
func (s *State) pending() []StateEntry {
	entries := make([]StateEntry, 0, len(s.dirty))
	for dk := range s.dirty {
		value, exists := s.contracts[dk.contract][dk.key]
		entries = append(entries, StateEntry{
			Contract: dk.contract,
			Key:      []byte(dk.key),
			Value:    bytes.Clone(value),
			Deleted:  !exists,
		})
	}
	// Deterministic flush order keeps the persister's writes reproducible.
	sort.Slice(entries, func(i, j int) bool {
		ci := bytes.Compare(entries[i].Contract[:], entries[j].Contract[:])
		if ci != 0 {
			return ci < 0
		}
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
	return entries
}

// commit discards the journal, making the transaction's mutations final
func (s *State) commit() {
	s.journal = nil
	s.dirty = nil
}
