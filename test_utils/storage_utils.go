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

package test_utils

import (
	"maps"
	"slices"

	"github.com/starframe/unsize"
)

// InMemBaseStorage keeps committed account data in memory. It copies data
// in and out, so an arena loaded from it never aliases the committed bytes
// and dropped transactions leave the store untouched.
type InMemBaseStorage struct {
	accounts map[unsize.Address][]byte

	// storeErr and retrieveErr, when set, are returned by every Store and
	// Retrieve.
	storeErr    error
	retrieveErr error

	bytesRetrieved int
	bytesStored    int
	returned       map[unsize.Address]struct{}
	updated        map[unsize.Address]struct{}
}

var _ unsize.BaseStorage = &InMemBaseStorage{}

func NewInMemBaseStorage() *InMemBaseStorage {
	return NewInMemBaseStorageFromMap(nil)
}

// NewInMemBaseStorageFromMap returns a storage holding copies of accounts.
func NewInMemBaseStorageFromMap(accounts map[unsize.Address][]byte) *InMemBaseStorage {
	s := &InMemBaseStorage{accounts: make(map[unsize.Address][]byte, len(accounts))}
	for address, data := range accounts {
		s.accounts[address] = slices.Clone(data)
	}
	s.ResetReporter()
	return s
}

// FailStores makes every later Store return err. A nil err clears it.
func (s *InMemBaseStorage) FailStores(err error) {
	s.storeErr = err
}

// FailRetrieves makes every later Retrieve return err. A nil err clears it.
func (s *InMemBaseStorage) FailRetrieves(err error) {
	s.retrieveErr = err
}

func (s *InMemBaseStorage) Retrieve(address unsize.Address) ([]byte, bool, error) {
	if s.retrieveErr != nil {
		return nil, false, s.retrieveErr
	}
	data, ok := s.accounts[address]
	if !ok {
		return nil, false, nil
	}
	s.bytesRetrieved += len(data)
	s.returned[address] = struct{}{}
	return slices.Clone(data), true, nil
}

func (s *InMemBaseStorage) Store(address unsize.Address, data []byte) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.accounts[address] = slices.Clone(data)
	s.bytesStored += len(data)
	s.updated[address] = struct{}{}
	return nil
}

func (s *InMemBaseStorage) Remove(address unsize.Address) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	delete(s.accounts, address)
	s.updated[address] = struct{}{}
	return nil
}

// Segments returns a copy of the committed data by address.
func (s *InMemBaseStorage) Segments() map[unsize.Address][]byte {
	out := make(map[unsize.Address][]byte, len(s.accounts))
	for address, data := range s.accounts {
		out[address] = slices.Clone(data)
	}
	return out
}

// Addresses returns the committed addresses in order.
func (s *InMemBaseStorage) Addresses() []unsize.Address {
	return slices.SortedFunc(maps.Keys(s.accounts), unsize.Address.Compare)
}

// Fingerprints returns the content fingerprint of every committed account,
// for comparing the store before and after a transaction.
func (s *InMemBaseStorage) Fingerprints() map[unsize.Address]uint64 {
	out := make(map[unsize.Address]uint64, len(s.accounts))
	for address, data := range s.accounts {
		out[address] = unsize.Fingerprint(data)
	}
	return out
}

// Clone returns an independent storage holding the same committed data,
// with fresh usage counters and no injected errors.
func (s *InMemBaseStorage) Clone() *InMemBaseStorage {
	return NewInMemBaseStorageFromMap(s.accounts)
}

func (s *InMemBaseStorage) SegmentCounts() int {
	return len(s.accounts)
}

func (s *InMemBaseStorage) Size() int {
	total := 0
	for _, data := range s.accounts {
		total += len(data)
	}
	return total
}

func (s *InMemBaseStorage) BytesRetrieved() int {
	return s.bytesRetrieved
}

func (s *InMemBaseStorage) BytesStored() int {
	return s.bytesStored
}

func (s *InMemBaseStorage) SegmentsReturned() int {
	return len(s.returned)
}

func (s *InMemBaseStorage) SegmentsUpdated() int {
	return len(s.updated)
}

// SegmentsTouched counts the addresses either returned or updated.
func (s *InMemBaseStorage) SegmentsTouched() int {
	touched := maps.Clone(s.returned)
	maps.Copy(touched, s.updated)
	return len(touched)
}

func (s *InMemBaseStorage) ResetReporter() {
	s.bytesRetrieved = 0
	s.bytesStored = 0
	s.returned = make(map[unsize.Address]struct{})
	s.updated = make(map[unsize.Address]struct{})
}
