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
	"iter"
)

// UnsizedMapPtr is a view of an ordered map from packed keys to unsized
// values. It is an unsized list whose slots carry the key after the element
// offset:
//
//	[unsized size: u32][length: u32]([offset: u32][key]; length)[length: u32][values]
//
// Keys are sorted and unique, so lookups binary search the slots without
// touching the values.
type UnsizedMapPtr[K any, P Ptr, O any] struct {
	list *UnsizedListPtr[P, O]
	typ  *UnsizedMapType[K, P, O]
}

var _ Ptr = &UnsizedMapPtr[uint8, *ListPtr[uint8], []uint8]{}

func (m *UnsizedMapPtr[K, P, O]) Start() int {
	return m.list.Start()
}

func (m *UnsizedMapPtr[K, P, O]) DataLen() int {
	return m.list.DataLen()
}

func (m *UnsizedMapPtr[K, P, O]) ResizeNotification(source, change int) error {
	return m.list.ResizeNotification(source, change)
}

func (m *UnsizedMapPtr[K, P, O]) Len() int {
	return m.list.Len()
}

func (m *UnsizedMapPtr[K, P, O]) IsEmpty() bool {
	return m.list.IsEmpty()
}

func (m *UnsizedMapPtr[K, P, O]) keyAt(index int) (K, error) {
	off := m.list.offsetSlot(index) + u32Size
	return m.typ.key.Decode(m.list.arena.data[off : off+m.typ.key.Size()])
}

// GetIndex binary searches for key. It returns the index of key and true,
// or the index key would be inserted at and false.
func (m *UnsizedMapPtr[K, P, O]) GetIndex(key K) (int, bool, error) {
	lo, hi := 0, m.list.Len()
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		k, err := m.keyAt(mid)
		if err != nil {
			return 0, false, err
		}
		switch c := m.typ.key.Compare(k, key); {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid
		default:
			return mid, true, nil
		}
	}
	return lo, false, nil
}

func (m *UnsizedMapPtr[K, P, O]) mustIndex(key K) (int, bool) {
	i, found, err := m.GetIndex(key)
	if err != nil {
		panic(err)
	}
	return i, found
}

func (m *UnsizedMapPtr[K, P, O]) ContainsKey(key K) bool {
	_, found := m.mustIndex(key)
	return found
}

// Get returns a read-only view of the value of key, valid until the next
// resize.
func (m *UnsizedMapPtr[K, P, O]) Get(key K) (P, bool, error) {
	var zero P
	i, found, err := m.GetIndex(key)
	if err != nil || !found {
		return zero, false, err
	}
	p, err := m.list.Get(i)
	if err != nil {
		return zero, false, err
	}
	return p, true, nil
}

// ValuePtr returns a writable view of the value of key. Resizing it moves
// the values after it and the rest of the arena. Value views are revoked
// when entries are inserted, replaced or removed.
func (m *UnsizedMapPtr[K, P, O]) ValuePtr(key K) (P, bool, error) {
	var zero P
	i, found, err := m.GetIndex(key)
	if err != nil || !found {
		return zero, false, err
	}
	p, err := m.list.Element(i)
	if err != nil {
		return zero, false, err
	}
	return p, true, nil
}

// GetByIndex returns the key and a read-only view of the value at a slot.
func (m *UnsizedMapPtr[K, P, O]) GetByIndex(index int) (K, P, error) {
	var zeroK K
	var zeroP P
	if err := m.list.checkIndex(index); err != nil {
		return zeroK, zeroP, err
	}
	k, err := m.keyAt(index)
	if err != nil {
		return zeroK, zeroP, err
	}
	p, err := m.list.Get(index)
	if err != nil {
		return zeroK, zeroP, err
	}
	return k, p, nil
}

// Insert sets the value of key to one initialized from arg. It returns true
// if key was new, and false if an existing value was replaced.
func (m *UnsizedMapPtr[K, P, O]) Insert(key K, arg any) (bool, error) {
	size, err := m.typ.list.elem.InitBytes(arg)
	if err != nil {
		return false, err
	}
	return m.insert(key, size, m.list.initWriter(arg))
}

// InsertOwned sets the value of key to owned, like Insert.
func (m *UnsizedMapPtr[K, P, O]) InsertOwned(key K, owned O) (bool, error) {
	return m.insert(key, m.typ.list.elem.ByteSize(owned), m.list.ownedWriter(owned))
}

func (m *UnsizedMapPtr[K, P, O]) insert(key K, size int, write func(b *[]byte) error) (bool, error) {
	if _, err := m.list.resizable(m.typ.name); err != nil {
		return false, err
	}
	i, found, err := m.GetIndex(key)
	if err != nil {
		return false, err
	}
	if found {
		return false, m.list.set(i, size, write)
	}
	encodeKey := func(b []byte) {
		m.typ.key.Encode(b, key)
	}
	if err := m.list.insert(i, encodeKey, size, write); err != nil {
		return false, err
	}
	return true, nil
}

// Remove removes key and reports whether it was present.
func (m *UnsizedMapPtr[K, P, O]) Remove(key K) (bool, error) {
	if _, err := m.list.resizable(m.typ.name); err != nil {
		return false, err
	}
	i, found, err := m.GetIndex(key)
	if err != nil || !found {
		return false, err
	}
	if err := m.list.Remove(i); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every entry with a single shift.
func (m *UnsizedMapPtr[K, P, O]) Clear() error {
	return m.list.Clear()
}

// All iterates over the keys and read-only views of the values in key order.
func (m *UnsizedMapPtr[K, P, O]) All() iter.Seq2[K, P] {
	return func(yield func(K, P) bool) {
		for i := range m.list.Len() {
			k, p, err := m.GetByIndex(i)
			if err != nil {
				panic(err)
			}
			if !yield(k, p) {
				return
			}
		}
	}
}

func (m *UnsizedMapPtr[K, P, O]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for i := range m.list.Len() {
			k, err := m.keyAt(i)
			if err != nil {
				panic(err)
			}
			if !yield(k) {
				return
			}
		}
	}
}

func (m *UnsizedMapPtr[K, P, O]) Values() iter.Seq[P] {
	return func(yield func(P) bool) {
		for _, p := range m.list.All() {
			if !yield(p) {
				return
			}
		}
	}
}

// AsShared returns a read-only view valid until the next resize.
func (m *UnsizedMapPtr[K, P, O]) AsShared() *UnsizedMapPtr[K, P, O] {
	return &UnsizedMapPtr[K, P, O]{list: m.list.AsShared(), typ: m.typ}
}

// UnsizedMapType is the unsized type of maps from packed keys to unsized
// values. Its owned form is a *MapOwned of owned values.
type UnsizedMapType[K any, P Ptr, O any] struct {
	key  OrderedCodec[K]
	list *UnsizedListType[P, O]
	name string
}

var _ Type[*UnsizedMapPtr[uint8, *ListPtr[uint8], []uint8], *MapOwned[uint8, []uint8]] = &UnsizedMapType[uint8, *ListPtr[uint8], []uint8]{}

// UnsizedMapOf returns the type of maps from key to value. It panics if
// value may be zero-sized.
func UnsizedMapOf[K any, P Ptr, O any](key OrderedCodec[K], value Type[P, O]) *UnsizedMapType[K, P, O] {
	name := fmt.Sprintf("UnsizedMap<%s, %s>", key.TypeName(), value.TypeName())
	return &UnsizedMapType[K, P, O]{
		key:  key,
		list: newUnsizedListType(value, name, u32Size+key.Size()),
		name: name,
	}
}

func (t *UnsizedMapType[K, P, O]) TypeName() string {
	return t.name
}

func (t *UnsizedMapType[K, P, O]) ZSTStatus() ZSTStatus {
	return NoZST
}

// NewOwned returns an empty owned map with the key order of t.
func (t *UnsizedMapType[K, P, O]) NewOwned() *MapOwned[K, O] {
	return NewMapOwned[K, O](t.key.Compare)
}

func (t *UnsizedMapType[K, P, O]) GetPtr(c *Cursor) (*UnsizedMapPtr[K, P, O], error) {
	list, err := t.list.GetPtr(c)
	if err != nil {
		return nil, err
	}
	return &UnsizedMapPtr[K, P, O]{list: list, typ: t}, nil
}

func (t *UnsizedMapType[K, P, O]) OwnedFromPtr(p *UnsizedMapPtr[K, P, O]) (*MapOwned[K, O], error) {
	values, err := t.list.OwnedFromPtr(p.list)
	if err != nil {
		return nil, err
	}
	owned := t.NewOwned()
	owned.entries = make([]ListItem[K, O], 0, len(values))
	for i, v := range values {
		k, err := p.keyAt(i)
		if err != nil {
			return nil, err
		}
		owned.entries = append(owned.entries, ListItem[K, O]{Key: k, Value: v})
	}
	return owned, nil
}

func (t *UnsizedMapType[K, P, O]) ByteSize(owned *MapOwned[K, O]) int {
	size := unsizedListHeaderSize + len(owned.entries)*t.list.slotSize
	for _, e := range owned.entries {
		size += t.list.elem.ByteSize(e.Value)
	}
	return size
}

func (t *UnsizedMapType[K, P, O]) FromOwned(owned *MapOwned[K, O], b *[]byte) (int, error) {
	entries := owned.entries
	return t.list.writeElements(b, len(entries),
		func(i int, slot []byte) {
			t.key.Encode(slot, entries[i].Key)
		},
		func(i int, b *[]byte) (int, error) {
			return t.list.elem.FromOwned(entries[i].Value, b)
		},
	)
}

// InitBytes accepts DefaultInit (empty) or an *MapOwned.
func (t *UnsizedMapType[K, P, O]) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return unsizedListHeaderSize, nil
	case *MapOwned[K, O]:
		return t.ByteSize(a), nil
	default:
		return 0, NewUnsupportedInitArgError(t.name, arg)
	}
}

func (t *UnsizedMapType[K, P, O]) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		_, err := t.list.writeElements(b, 0, nil, nil)
		return err
	case *MapOwned[K, O]:
		_, err := t.FromOwned(a, b)
		return err
	default:
		return NewUnsupportedInitArgError(t.name, arg)
	}
}
