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
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshots are encoded with Core Deterministic Encoding (RFC 8949), so
// equal contents always produce equal bytes. Duplicate map keys are
// rejected on decode.

const (
	maxSnapshotAccounts = 1 << 20
	maxSnapshotMapPairs = 1 << 20
)

var (
	encOptions = cbor.EncOptions{
		IndefLength: cbor.IndefLengthForbidden,
		Sort:        cbor.SortCoreDeterministic,
		ByteArray:   cbor.ByteArrayToByteSlice,
	}

	decOptions = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		IndefLength:       cbor.IndefLengthForbidden,
		MaxArrayElements:  maxSnapshotAccounts,
		MaxMapPairs:       maxSnapshotMapPairs,
	}

	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = encOptions.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = decOptions.DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, NewEncodingError(err)
	}
	return b, nil
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return NewDecodingError(err)
	}
	return nil
}

// AccountSnapshot is the state of one account.
type AccountSnapshot struct {
	Address     Address `cbor:"1,keyasint"`
	Data        []byte  `cbor:"2,keyasint"`
	Fingerprint uint64  `cbor:"3,keyasint"`
}

// Snapshot is the state of a set of accounts, ordered by address.
type Snapshot struct {
	Accounts []AccountSnapshot `cbor:"1,keyasint"`
}

// EncodeSnapshot encodes s. Accounts must be in strictly increasing
// address order.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, NewEncodingError(err)
	}
	return Marshal(s)
}

// DecodeSnapshot decodes a snapshot and checks the fingerprint of every
// account.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, NewDecodingError(err)
	}
	return &s, nil
}

func (s *Snapshot) validate() error {
	for i, account := range s.Accounts {
		if i > 0 && s.Accounts[i-1].Address.Compare(account.Address) >= 0 {
			return fmt.Errorf("account %s is out of order", account.Address)
		}
		if got := Fingerprint(account.Data); got != account.Fingerprint {
			return fmt.Errorf("account %s fingerprint %x doesn't match data (%x)", account.Address, account.Fingerprint, got)
		}
	}
	return nil
}

// SnapshotOf takes a snapshot of arenas.
func SnapshotOf(arenas map[Address]*Arena) *Snapshot {
	addresses := make([]Address, 0, len(arenas))
	for address := range arenas {
		addresses = append(addresses, address)
	}
	sortAddresses(addresses)

	s := &Snapshot{Accounts: make([]AccountSnapshot, 0, len(addresses))}
	for _, address := range addresses {
		arena := arenas[address]
		s.Accounts = append(s.Accounts, AccountSnapshot{
			Address:     address,
			Data:        append([]byte(nil), arena.data...),
			Fingerprint: arena.Fingerprint(),
		})
	}
	return s
}
