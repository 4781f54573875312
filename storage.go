/*
 * Unsize - Zero-Copy Resizable Account Layouts
 *
 * Copyright 2024 Star Frame Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package unsize

import (
	"errors"
	"fmt"
)

type BaseStorageUsageReporter interface {
	BytesRetrieved() int
	BytesStored() int
	SegmentsReturned() int
	SegmentsUpdated() int
	SegmentsTouched() int
	ResetReporter()
}

// BaseStorage persists account data by address.
type BaseStorage interface {
	Store(Address, []byte) error
	Retrieve(Address) ([]byte, bool, error)
	Remove(Address) error
	SegmentCounts() int // number of accounts stored in the storage
	Size() int          // total byte size stored
	BaseStorageUsageReporter
}

type accountEntry struct {
	arena *Arena
	// fingerprint of the data in base storage
	fingerprint uint64
	// stored is false for accounts created since the last commit.
	stored bool
}

// AccountStorage caches the account arenas used by one transaction on top
// of a BaseStorage. Changes reach the base storage on Commit.
type AccountStorage struct {
	baseStorage BaseStorage
	accounts    map[Address]*accountEntry
	deleted     map[Address]struct{}
	maxGrowth   int
}

type AccountStorageOption func(st *AccountStorage) *AccountStorage

// WithMaxGrowth sets the growth ceiling of the arenas loaded by the storage.
func WithMaxGrowth(maxGrowth int) AccountStorageOption {
	return func(st *AccountStorage) *AccountStorage {
		st.maxGrowth = maxGrowth
		return st
	}
}

func NewAccountStorage(base BaseStorage, opts ...AccountStorageOption) *AccountStorage {
	storage := &AccountStorage{
		baseStorage: base,
		accounts:    make(map[Address]*accountEntry),
		deleted:     make(map[Address]struct{}),
		maxGrowth:   DefaultMaxGrowth,
	}

	for _, applyOption := range opts {
		storage = applyOption(storage)
	}

	return storage
}

func (s *AccountStorage) newArena(data []byte) *Arena {
	return NewArenaWithConfig(data, ArenaConfig{
		OriginalLen: len(data),
		MaxGrowth:   s.maxGrowth,
	})
}

// Load returns the arena of the account at address.
func (s *AccountStorage) Load(address Address) (*Arena, error) {
	if entry, ok := s.accounts[address]; ok {
		return entry.arena, nil
	}
	if _, ok := s.deleted[address]; ok {
		return nil, NewAccountNotFoundError(address)
	}

	data, ok, err := s.baseStorage.Retrieve(address)
	if err != nil {
		return nil, wrapStorageError(err, fmt.Sprintf("failed to retrieve account %s", address))
	}
	if !ok {
		return nil, NewAccountNotFoundError(address)
	}

	arena := s.newArena(data)
	s.accounts[address] = &accountEntry{
		arena:       arena,
		fingerprint: arena.Fingerprint(),
		stored:      true,
	}
	return arena, nil
}

// Exists reports whether the account at address exists.
func (s *AccountStorage) Exists(address Address) (bool, error) {
	_, err := s.Load(address)
	if err == nil {
		return true, nil
	}
	var notFound *AccountNotFoundError
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}

// Create creates the account at address holding data.
func (s *AccountStorage) Create(address Address, data []byte) (*Arena, error) {
	if address == AddressUndefined {
		return nil, NewStorageError(errors.New("can't create an account at the undefined address"))
	}
	if len(data) > MaxAccountDataLength {
		return nil, NewMaxAccountSizeError(len(data))
	}
	exists, err := s.Exists(address)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewStorageError(fmt.Errorf("account %s already exists", address))
	}

	_, wasDeleted := s.deleted[address]
	delete(s.deleted, address)

	arena := s.newArena(data)
	s.accounts[address] = &accountEntry{
		arena:  arena,
		stored: wasDeleted,
	}
	if wasDeleted {
		// The stored data is replaced on commit.
		s.accounts[address].fingerprint = ^arena.Fingerprint()
	}
	return arena, nil
}

// Delete deletes the account at address.
func (s *AccountStorage) Delete(address Address) error {
	exists, err := s.Exists(address)
	if err != nil {
		return err
	}
	if !exists {
		return NewAccountNotFoundError(address)
	}
	entry := s.accounts[address]
	if entry.arena.Borrowed() {
		return NewBorrowError(true)
	}
	delete(s.accounts, address)
	if entry.stored {
		s.deleted[address] = struct{}{}
	}
	return nil
}

// HasUnsavedChanges returns true if the account at address changed since
// it was loaded or last committed.
func (s *AccountStorage) HasUnsavedChanges(address Address) bool {
	if _, ok := s.deleted[address]; ok {
		return true
	}
	entry, ok := s.accounts[address]
	if !ok {
		return false
	}
	return !entry.stored || entry.arena.Fingerprint() != entry.fingerprint
}

// Addresses returns the addresses of the loaded accounts in order.
func (s *AccountStorage) Addresses() []Address {
	addresses := make([]Address, 0, len(s.accounts))
	for address := range s.accounts {
		addresses = append(addresses, address)
	}
	sortAddresses(addresses)
	return addresses
}

func (s *AccountStorage) sortedDeltaKeys() []Address {
	keys := make([]Address, 0, len(s.accounts)+len(s.deleted))
	for address := range s.deleted {
		keys = append(keys, address)
	}
	for address := range s.accounts {
		if s.HasUnsavedChanges(address) {
			keys = append(keys, address)
		}
	}
	// sorted so commit is deterministic
	sortAddresses(keys)
	return keys
}

// Commit stores every changed account and starts a new transaction for the
// loaded accounts. Accounts must not be borrowed.
func (s *AccountStorage) Commit() error {
	for address, entry := range s.accounts {
		if entry.arena.Borrowed() {
			return NewStorageError(fmt.Errorf("account %s is borrowed during commit", address))
		}
	}

	for _, address := range s.sortedDeltaKeys() {
		if _, ok := s.deleted[address]; ok {
			if err := s.baseStorage.Remove(address); err != nil {
				return wrapStorageError(err, fmt.Sprintf("failed to remove account %s", address))
			}
			delete(s.deleted, address)
			continue
		}

		entry := s.accounts[address]
		data := append([]byte(nil), entry.arena.data...)
		if err := s.baseStorage.Store(address, data); err != nil {
			return wrapStorageError(err, fmt.Sprintf("failed to store account %s", address))
		}
		entry.stored = true
		entry.fingerprint = Fingerprint(data)
	}

	for _, entry := range s.accounts {
		entry.arena.startTransaction()
	}
	return nil
}

// DropDeltas discards every uncommitted change. Arenas returned earlier
// must not be used afterwards.
func (s *AccountStorage) DropDeltas() {
	s.accounts = make(map[Address]*accountEntry)
	s.deleted = make(map[Address]struct{})
}

// Snapshot encodes the current data of the loaded accounts.
func (s *AccountStorage) Snapshot() ([]byte, error) {
	arenas := make(map[Address]*Arena, len(s.accounts))
	for address, entry := range s.accounts {
		arenas[address] = entry.arena
	}
	return EncodeSnapshot(SnapshotOf(arenas))
}

// Restore creates or overwrites the accounts of an encoded snapshot.
func (s *AccountStorage) Restore(data []byte) error {
	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	for _, account := range snapshot.Accounts {
		if entry, ok := s.accounts[account.Address]; ok {
			if entry.arena.Borrowed() {
				return NewBorrowError(true)
			}
			entry.arena = s.newArena(account.Data)
			continue
		}
		if _, err := s.Create(account.Address, account.Data); err != nil {
			return err
		}
	}
	return nil
}

func wrapStorageError(err error, msg string) error {
	var e Error
	if errors.As(err, &e) {
		return err
	}
	return NewStorageError(fmt.Errorf("%s: %w", msg, err))
}
