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
package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/starframe/unsize"
)

const (
	idleState uint8 = iota
	noteState
	tagsState
)

type (
	statePtr  = *unsize.EnumPtr[uint8]
	ownersPtr = *unsize.DualKeyMapPtr[uint32, uint64, uint32]
	tailPtr   = *unsize.CombinedPtr[ownersPtr, statePtr]
	middlePtr = *unsize.CombinedPtr[*unsize.MapPtr[uint32, uint64], tailPtr]
	bodyPtr   = *unsize.CombinedPtr[*unsize.ListPtr[uint32], middlePtr]

	ownersOwned = []unsize.DualKeyEntry[uint32, uint64, uint32]
	tailOwned   = unsize.CombinedOwned[ownersOwned, unsize.EnumOwned[uint8]]
	middleOwned = unsize.CombinedOwned[*unsize.MapOwned[uint32, uint64], tailOwned]
	bodyOwned   = unsize.CombinedOwned[[]uint32, middleOwned]
)

var (
	valuesType   = unsize.ListOf[uint32](unsize.U32, unsize.LenU32)
	balancesType = unsize.MapOf[uint32, uint64](unsize.U32, unsize.U64, unsize.LenU32)
	ownersType   = unsize.DualKeyMapOf[uint32, uint64, uint32](unsize.U32, unsize.U64, unsize.U32, unsize.LenU32)

	idleVariant = unsize.NewVariant[uint8, *unsize.UnitPtr, struct{}]("Idle", idleState, unsize.Unit)
	noteVariant = unsize.NewVariant[uint8, *unsize.UnsizedStringPtr, string]("Note", noteState, unsize.UnsizedString)
	tagsVariant = unsize.NewVariant[uint8, *unsize.ListPtr[uint16], []uint16](
		"Tags",
		tagsState,
		unsize.ListOf[uint16](unsize.U16, unsize.LenU8),
	)
	stateType = unsize.NewEnum[uint8]("State", unsize.U8, idleState, idleVariant, noteVariant, tagsVariant)

	tailType   = unsize.Combine[ownersPtr, ownersOwned, statePtr, unsize.EnumOwned[uint8]](ownersType, stateType)
	middleType = unsize.Combine[*unsize.MapPtr[uint32, uint64], *unsize.MapOwned[uint32, uint64], tailPtr, tailOwned](balancesType, tailType)
	bodyType   = unsize.Combine[*unsize.ListPtr[uint32], []uint32, middlePtr, middleOwned](valuesType, middleType)

	accountType = unsize.NewAccountType[bodyPtr, bodyOwned]("StressAccount", bodyType)
)

type accountPtr = *unsize.AccountPtr[bodyPtr]

// views are the collections of one account.
type views struct {
	values   *unsize.ListPtr[uint32]
	balances *unsize.MapPtr[uint32, uint64]
	owners   ownersPtr
	state    statePtr
}

func viewsOf(p accountPtr) views {
	body := p.Inner
	return views{
		values:   body.A,
		balances: body.B.A,
		owners:   body.B.B.A,
		state:    body.B.B.B,
	}
}

type ownerEntry struct {
	key2  uint64
	value uint32
}

// model is the expected content of the account.
type model struct {
	values   []uint32
	balances map[uint32]uint64
	owners   map[uint32]ownerEntry
	byKey2   map[uint64]uint32
	state    unsize.EnumOwned[uint8]
}

func newModel() *model {
	return &model{
		balances: make(map[uint32]uint64),
		owners:   make(map[uint32]ownerEntry),
		byKey2:   make(map[uint64]uint32),
		state:    unsize.EnumOwned[uint8]{Discriminant: idleState, Value: struct{}{}},
	}
}

// check compares the owned form of the account with m.
func (m *model) check(owned bodyOwned) error {
	if !slices.Equal(m.values, owned.A) {
		return fmt.Errorf("values: expected %d elements, got %d (%v)", len(m.values), len(owned.A), firstDiff(m.values, owned.A))
	}

	balances := owned.B.A
	if balances.Len() != len(m.balances) {
		return fmt.Errorf("balances: expected %d entries, got %d", len(m.balances), balances.Len())
	}
	keys := slices.Sorted(maps.Keys(m.balances))
	for i, e := range balances.Entries() {
		if e.Key != keys[i] || e.Value != m.balances[e.Key] {
			return fmt.Errorf("balances: entry %d is (%d, %d), expected (%d, %d)", i, e.Key, e.Value, keys[i], m.balances[keys[i]])
		}
	}

	owners := owned.B.B.A
	if len(owners) != len(m.owners) {
		return fmt.Errorf("owners: expected %d entries, got %d", len(m.owners), len(owners))
	}
	for _, e := range owners {
		expected, ok := m.owners[e.Key1]
		if !ok || expected.key2 != e.Key2 || expected.value != e.Value {
			return fmt.Errorf("owners: unexpected entry (%d, %d, %d)", e.Key1, e.Key2, e.Value)
		}
	}

	return checkState(m.state, owned.B.B.B)
}

func checkState(expected, got unsize.EnumOwned[uint8]) error {
	if expected.Discriminant != got.Discriminant {
		return fmt.Errorf("state: expected variant %d, got %d", expected.Discriminant, got.Discriminant)
	}
	switch expected.Discriminant {
	case noteState:
		if expected.Value.(string) != got.Value.(string) {
			return fmt.Errorf("state: expected note %q, got %q", expected.Value, got.Value)
		}
	case tagsState:
		if !slices.Equal(expected.Value.([]uint16), got.Value.([]uint16)) {
			return fmt.Errorf("state: expected tags %v, got %v", expected.Value, got.Value)
		}
	}
	return nil
}

// checkOwners compares the indexes of the live dual key map with m.
func (m *model) checkOwners(owners ownersPtr) error {
	for key1, e := range m.owners {
		key2, value, found := owners.GetByLeft(key1)
		if !found || key2 != e.key2 || value != e.value {
			return fmt.Errorf("owners: left lookup of %d got (%d, %d, %t)", key1, key2, value, found)
		}
		back, value, found := owners.GetByRight(e.key2)
		if !found || back != key1 || value != e.value {
			return fmt.Errorf("owners: right lookup of %d got (%d, %d, %t)", e.key2, back, value, found)
		}
	}
	return nil
}

func firstDiff(expected, got []uint32) string {
	for i := range min(len(expected), len(got)) {
		if expected[i] != got[i] {
			return fmt.Sprintf("first difference at %d: expected %d, got %d", i, expected[i], got[i])
		}
	}
	return "one is a prefix of the other"
}
