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

// MapPtr is a view of an ordered map stored as a list of key value pairs
// sorted by key, with no duplicate keys.
//
// Positions used by GetByIndex and the iterators shift on insert and remove.
type MapPtr[K, V any] struct {
	list *ListPtr[ListItem[K, V]]
	typ  *MapType[K, V]
}

var _ Ptr = &MapPtr[uint8, uint8]{}

func (m *MapPtr[K, V]) Start() int {
	return m.list.Start()
}

func (m *MapPtr[K, V]) DataLen() int {
	return m.list.DataLen()
}

func (m *MapPtr[K, V]) ResizeNotification(source, change int) error {
	return m.list.ResizeNotification(source, change)
}

func (m *MapPtr[K, V]) Len() int {
	return m.list.Len()
}

func (m *MapPtr[K, V]) IsEmpty() bool {
	return m.list.IsEmpty()
}

func (m *MapPtr[K, V]) keyAt(index int) (K, error) {
	off := m.list.elemOffset(index)
	return m.typ.key.Decode(m.list.arena.data[off : off+m.typ.key.Size()])
}

func (m *MapPtr[K, V]) valueOffset(index int) int {
	return m.list.elemOffset(index) + m.typ.key.Size()
}

func (m *MapPtr[K, V]) valueAt(index int) (V, error) {
	off := m.valueOffset(index)
	return m.typ.value.Decode(m.list.arena.data[off : off+m.typ.value.Size()])
}

// GetIndex binary searches for key. It returns the index of key and true,
// or the index key would be inserted at and false.
func (m *MapPtr[K, V]) GetIndex(key K) (int, bool, error) {
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

func (m *MapPtr[K, V]) mustIndex(key K) (int, bool) {
	i, found, err := m.GetIndex(key)
	if err != nil {
		panic(err)
	}
	return i, found
}

// Get returns the value of key.
func (m *MapPtr[K, V]) Get(key K) (V, bool) {
	i, found := m.mustIndex(key)
	if !found {
		var zero V
		return zero, false
	}
	v, err := m.valueAt(i)
	if err != nil {
		panic(err)
	}
	return v, true
}

func (m *MapPtr[K, V]) ContainsKey(key K) bool {
	_, found := m.mustIndex(key)
	return found
}

// ValuePtr returns a view of the value of key, valid until the next resize
// of the arena.
func (m *MapPtr[K, V]) ValuePtr(key K) (*PackedValue[V], bool) {
	i, found := m.mustIndex(key)
	if !found {
		return nil, false
	}
	return m.valuePtrAt(i), true
}

func (m *MapPtr[K, V]) valuePtrAt(index int) *PackedValue[V] {
	v := m.list.detach()
	v.start = m.valueOffset(index)
	return newPackedValue(v, m.typ.value)
}

// GetByIndex returns the entry at a list position.
func (m *MapPtr[K, V]) GetByIndex(index int) (K, V, bool) {
	item, ok := m.list.Get(index)
	return item.Key, item.Value, ok
}

// Insert sets the value of key. If key was present its value is replaced
// in place and the old value is returned with true.
func (m *MapPtr[K, V]) Insert(key K, value V) (V, bool, error) {
	var zero V
	if _, err := m.list.resizable(m.typ.name); err != nil {
		return zero, false, err
	}
	i, found, err := m.GetIndex(key)
	if err != nil {
		return zero, false, err
	}
	if found {
		old, err := m.valueAt(i)
		if err != nil {
			return zero, false, err
		}
		m.typ.value.Encode(m.list.arena.data[m.valueOffset(i):], value)
		return old, true, nil
	}
	if err := m.list.Insert(i, ListItem[K, V]{Key: key, Value: value}); err != nil {
		return zero, false, err
	}
	return zero, false, nil
}

// Remove removes key and returns its value.
func (m *MapPtr[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	if _, err := m.list.resizable(m.typ.name); err != nil {
		return zero, false, err
	}
	i, found, err := m.GetIndex(key)
	if err != nil || !found {
		return zero, false, err
	}
	item, err := m.list.Remove(i)
	if err != nil {
		return zero, false, err
	}
	return item.Value, true, nil
}

// Clear removes every entry with a single shift.
func (m *MapPtr[K, V]) Clear() error {
	return m.list.Clear()
}

// All iterates over the entries in key order.
func (m *MapPtr[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, item := range m.list.All() {
			if !yield(item.Key, item.Value) {
				return
			}
		}
	}
}

func (m *MapPtr[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

func (m *MapPtr[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// ValuePtrs iterates over keys and views of their values, for updating
// values in place.
func (m *MapPtr[K, V]) ValuePtrs() iter.Seq2[K, *PackedValue[V]] {
	return func(yield func(K, *PackedValue[V]) bool) {
		for i := range m.list.Len() {
			k, err := m.keyAt(i)
			if err != nil {
				panic(err)
			}
			if !yield(k, m.valuePtrAt(i)) {
				return
			}
		}
	}
}

// AsShared returns a read-only view valid until the next resize.
func (m *MapPtr[K, V]) AsShared() *MapPtr[K, V] {
	return &MapPtr[K, V]{list: m.list.AsShared(), typ: m.typ}
}

// MapOwned is an ordered map held outside any arena.
type MapOwned[K, V any] struct {
	entries []ListItem[K, V]
	compare func(a, b K) int
}

// NewMapOwned returns an empty owned map ordered by compare.
func NewMapOwned[K, V any](compare func(a, b K) int) *MapOwned[K, V] {
	return &MapOwned[K, V]{compare: compare}
}

func (m *MapOwned[K, V]) itemCompare(a, b ListItem[K, V]) int {
	return m.compare(a.Key, b.Key)
}

func (m *MapOwned[K, V]) keyCompare(e ListItem[K, V], key K) int {
	return m.compare(e.Key, key)
}

func (m *MapOwned[K, V]) Len() int {
	return len(m.entries)
}

func (m *MapOwned[K, V]) Get(key K) (V, bool) {
	i, found := sortedIndex(m.entries, key, m.keyCompare)
	if !found {
		var zero V
		return zero, false
	}
	return m.entries[i].Value, true
}

func (m *MapOwned[K, V]) ContainsKey(key K) bool {
	_, found := sortedIndex(m.entries, key, m.keyCompare)
	return found
}

// Insert sets the value of key and returns the replaced value.
func (m *MapOwned[K, V]) Insert(key K, value V) (V, bool) {
	var old ListItem[K, V]
	var replaced bool
	m.entries, old, replaced = insertSorted(m.entries, ListItem[K, V]{Key: key, Value: value}, m.itemCompare)
	return old.Value, replaced
}

func (m *MapOwned[K, V]) Remove(key K) (V, bool) {
	var old ListItem[K, V]
	var found bool
	m.entries, old, found = removeSorted(m.entries, key, m.keyCompare)
	return old.Value, found
}

func (m *MapOwned[K, V]) Clear() {
	m.entries = nil
}

// Entries returns the entries in key order.
func (m *MapOwned[K, V]) Entries() []ListItem[K, V] {
	return append([]ListItem[K, V]{}, m.entries...)
}

func (m *MapOwned[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// MapType is the unsized type of a Map<K, V, L>.
type MapType[K, V any] struct {
	key   OrderedCodec[K]
	value Codec[V]
	list  *ListType[ListItem[K, V]]
	name  string
}

var _ Type[*MapPtr[uint8, uint8], *MapOwned[uint8, uint8]] = &MapType[uint8, uint8]{}

// MapOf returns the type of maps from key to value with a length prefix
// encoded by length.
func MapOf[K, V any](key OrderedCodec[K], value Codec[V], length LengthCodec) *MapType[K, V] {
	return &MapType[K, V]{
		key:   key,
		value: value,
		list:  ListOf(ListItemCodec[K, V](key, value), length),
		name:  fmt.Sprintf("Map<%s, %s, %s>", key.TypeName(), value.TypeName(), length.TypeName()),
	}
}

func (t *MapType[K, V]) TypeName() string {
	return t.name
}

func (t *MapType[K, V]) ZSTStatus() ZSTStatus {
	return NoZST
}

// NewOwned returns an empty owned map with the key order of t.
func (t *MapType[K, V]) NewOwned() *MapOwned[K, V] {
	return NewMapOwned[K, V](t.key.Compare)
}

func (t *MapType[K, V]) GetPtr(c *Cursor) (*MapPtr[K, V], error) {
	list, err := t.list.GetPtr(c)
	if err != nil {
		return nil, err
	}
	return &MapPtr[K, V]{list: list, typ: t}, nil
}

func (t *MapType[K, V]) OwnedFromPtr(p *MapPtr[K, V]) (*MapOwned[K, V], error) {
	entries, err := p.list.ToSlice()
	if err != nil {
		return nil, err
	}
	owned := t.NewOwned()
	owned.entries = entries
	return owned, nil
}

func (t *MapType[K, V]) ByteSize(owned *MapOwned[K, V]) int {
	return t.list.ByteSize(owned.entries)
}

func (t *MapType[K, V]) FromOwned(owned *MapOwned[K, V], b *[]byte) (int, error) {
	return t.list.FromOwned(owned.entries, b)
}

func (t *MapType[K, V]) sortedEntries(entries []ListItem[K, V]) []ListItem[K, V] {
	return sortedUnique(entries, func(a, b ListItem[K, V]) int {
		return t.key.Compare(a.Key, b.Key)
	})
}

// InitBytes accepts DefaultInit (empty), an *MapOwned, or a []ListItem
// literal in any order where later duplicates win.
func (t *MapType[K, V]) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return t.list.InitBytes(a)
	case *MapOwned[K, V]:
		return t.list.InitBytes(a.entries)
	case []ListItem[K, V]:
		return t.list.InitBytes(t.sortedEntries(a))
	default:
		return 0, NewUnsupportedInitArgError(t.name, arg)
	}
}

func (t *MapType[K, V]) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		return t.list.Init(b, a)
	case *MapOwned[K, V]:
		return t.list.Init(b, a.entries)
	case []ListItem[K, V]:
		return t.list.Init(b, t.sortedEntries(a))
	default:
		return NewUnsupportedInitArgError(t.name, arg)
	}
}
