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

// DualKeyEntry is an entry of a dual key map.
type DualKeyEntry[K1, K2, V any] struct {
	Key1  K1
	Key2  K2
	Value V
}

type dualKeyEntryCodec[K1, K2, V any] struct {
	key1  Codec[K1]
	key2  Codec[K2]
	value Codec[V]
}

func (c dualKeyEntryCodec[K1, K2, V]) TypeName() string {
	return fmt.Sprintf("DualKeyEntry<%s, %s, %s>", c.key1.TypeName(), c.key2.TypeName(), c.value.TypeName())
}

func (c dualKeyEntryCodec[K1, K2, V]) Size() int {
	return c.key1.Size() + c.key2.Size() + c.value.Size()
}

func (c dualKeyEntryCodec[K1, K2, V]) Encode(b []byte, e DualKeyEntry[K1, K2, V]) {
	c.key1.Encode(b, e.Key1)
	c.key2.Encode(b[c.key1.Size():], e.Key2)
	c.value.Encode(b[c.key1.Size()+c.key2.Size():], e.Value)
}

func (c dualKeyEntryCodec[K1, K2, V]) Decode(b []byte) (DualKeyEntry[K1, K2, V], error) {
	var e DualKeyEntry[K1, K2, V]
	if len(b) < c.Size() {
		return e, NewNotEnoughBytesError(c.TypeName(), c.Size(), len(b))
	}
	var err error
	if e.Key1, err = c.key1.Decode(b); err != nil {
		return e, err
	}
	if e.Key2, err = c.key2.Decode(b[c.key1.Size():]); err != nil {
		return e, err
	}
	if e.Value, err = c.value.Decode(b[c.key1.Size()+c.key2.Size():]); err != nil {
		return e, err
	}
	return e, nil
}

// indexCodec stores list positions with the width of the list length prefix.
type indexCodec struct {
	length LengthCodec
}

func (c indexCodec) TypeName() string {
	return c.length.TypeName()
}

func (c indexCodec) Size() int {
	return c.length.Size()
}

func (c indexCodec) Encode(b []byte, v int) {
	c.length.Write(b, v)
}

func (c indexCodec) Decode(b []byte) (int, error) {
	if len(b) < c.length.Size() {
		return 0, NewNotEnoughBytesError(c.TypeName(), c.length.Size(), len(b))
	}
	return c.length.Read(b), nil
}

// DualKeyMapPtr is a view of a bidirectional map: two sorted indices from
// each key to a position in one shared entry list.
//
//	[k1: Map<K1, L>][k2: Map<K2, L>][list: List<DualKeyEntry, L>]
//
// For every entry at position i, k1 maps its Key1 to i and k2 maps its
// Key2 to i.
type DualKeyMapPtr[K1, K2, V any] struct {
	k1   *MapPtr[K1, int]
	k2   *MapPtr[K2, int]
	list *ListPtr[DualKeyEntry[K1, K2, V]]
	typ  *DualKeyMapType[K1, K2, V]
}

var _ Ptr = &DualKeyMapPtr[uint8, uint8, uint8]{}

func (d *DualKeyMapPtr[K1, K2, V]) Start() int {
	return d.k1.Start()
}

func (d *DualKeyMapPtr[K1, K2, V]) DataLen() int {
	return d.k1.DataLen() + d.k2.DataLen() + d.list.DataLen()
}

func (d *DualKeyMapPtr[K1, K2, V]) ResizeNotification(source, change int) error {
	if err := d.k1.ResizeNotification(source, change); err != nil {
		return err
	}
	if err := d.k2.ResizeNotification(source, change); err != nil {
		return err
	}
	return d.list.ResizeNotification(source, change)
}

func (d *DualKeyMapPtr[K1, K2, V]) Len() int {
	return d.list.Len()
}

func (d *DualKeyMapPtr[K1, K2, V]) IsEmpty() bool {
	return d.list.IsEmpty()
}

func (d *DualKeyMapPtr[K1, K2, V]) ContainsLeft(key K1) bool {
	return d.k1.ContainsKey(key)
}

func (d *DualKeyMapPtr[K1, K2, V]) ContainsRight(key K2) bool {
	return d.k2.ContainsKey(key)
}

func (d *DualKeyMapPtr[K1, K2, V]) entryAt(index int) (DualKeyEntry[K1, K2, V], error) {
	n := d.list.Len()
	if index < 0 || index >= n {
		return DualKeyEntry[K1, K2, V]{}, NewDualKeyMapStateErrorf("index %d points past %d entries", index, n)
	}
	return d.list.decodeAt(index)
}

func (d *DualKeyMapPtr[K1, K2, V]) mustEntry(index int) DualKeyEntry[K1, K2, V] {
	e, err := d.entryAt(index)
	if err != nil {
		panic(err)
	}
	return e
}

// GetByLeft returns the right key and value of key.
func (d *DualKeyMapPtr[K1, K2, V]) GetByLeft(key K1) (K2, V, bool) {
	index, found := d.k1.Get(key)
	if !found {
		var k2 K2
		var v V
		return k2, v, false
	}
	e := d.mustEntry(index)
	return e.Key2, e.Value, true
}

// GetByRight returns the left key and value of key.
func (d *DualKeyMapPtr[K1, K2, V]) GetByRight(key K2) (K1, V, bool) {
	index, found := d.k2.Get(key)
	if !found {
		var k1 K1
		var v V
		return k1, v, false
	}
	e := d.mustEntry(index)
	return e.Key1, e.Value, true
}

func (d *DualKeyMapPtr[K1, K2, V]) valuePtrAt(index int) *PackedValue[V] {
	v := d.list.detach()
	v.start = d.list.elemOffset(index) + d.typ.key1.Size() + d.typ.key2.Size()
	return newPackedValue(v, d.typ.value)
}

// ValuePtrByLeft returns a view of the value of key, valid until the next
// resize of the arena.
func (d *DualKeyMapPtr[K1, K2, V]) ValuePtrByLeft(key K1) (*PackedValue[V], bool) {
	index, found := d.k1.Get(key)
	if !found {
		return nil, false
	}
	if _, err := d.entryAt(index); err != nil {
		panic(err)
	}
	return d.valuePtrAt(index), true
}

// ValuePtrByRight returns a view of the value of key, valid until the next
// resize of the arena.
func (d *DualKeyMapPtr[K1, K2, V]) ValuePtrByRight(key K2) (*PackedValue[V], bool) {
	index, found := d.k2.Get(key)
	if !found {
		return nil, false
	}
	if _, err := d.entryAt(index); err != nil {
		panic(err)
	}
	return d.valuePtrAt(index), true
}

// Insert adds an entry, or replaces the value of the entry both keys
// already identify. Keys which identify different entries, or of which only
// one is present, are rejected without changing the map.
func (d *DualKeyMapPtr[K1, K2, V]) Insert(key1 K1, key2 K2, value V) (V, bool, error) {
	var zero V
	if _, err := d.list.resizable(d.typ.name); err != nil {
		return zero, false, err
	}

	index1, found1 := d.k1.Get(key1)
	index2, found2 := d.k2.Get(key2)

	switch {
	case found1 && found2:
		if index1 != index2 {
			return zero, false, NewDualKeyMismatchError("Key 1 and Key 2 point to different values")
		}
		old, err := d.entryAt(index1)
		if err != nil {
			return zero, false, err
		}
		if err := d.list.Set(index1, DualKeyEntry[K1, K2, V]{Key1: key1, Key2: key2, Value: value}); err != nil {
			return zero, false, err
		}
		return old.Value, true, nil

	case !found1 && !found2:
		index := d.list.Len()
		if err := d.list.Push(DualKeyEntry[K1, K2, V]{Key1: key1, Key2: key2, Value: value}); err != nil {
			return zero, false, err
		}
		if _, _, err := d.k1.Insert(key1, index); err != nil {
			return zero, false, d.rollback(err, func() error {
				_, _, err := d.list.Pop()
				return err
			})
		}
		if _, _, err := d.k2.Insert(key2, index); err != nil {
			return zero, false, d.rollback(err, func() error {
				if _, _, err := d.k1.Remove(key1); err != nil {
					return err
				}
				_, _, err := d.list.Pop()
				return err
			})
		}
		return zero, false, nil

	default:
		return zero, false, NewDualKeyMismatchError("only one of Key 1 and Key 2 is present")
	}
}

// rollback undoes the steps of a failed insert. Undo steps only shrink the
// arena, so they don't fail on a consistent map.
func (d *DualKeyMapPtr[K1, K2, V]) rollback(cause error, undo func() error) error {
	if err := undo(); err != nil {
		return NewDualKeyMapStateErrorf("rollback after %v failed: %v", cause, err)
	}
	return cause
}

// RemoveByLeft removes the entry of key and returns its right key and value.
func (d *DualKeyMapPtr[K1, K2, V]) RemoveByLeft(key K1) (K2, V, bool, error) {
	var k2 K2
	var v V
	if _, err := d.list.resizable(d.typ.name); err != nil {
		return k2, v, false, err
	}
	index, found := d.k1.Get(key)
	if !found {
		return k2, v, false, nil
	}
	e, err := d.removeAt(index)
	if err != nil {
		return k2, v, false, err
	}
	return e.Key2, e.Value, true, nil
}

// RemoveByRight removes the entry of key and returns its left key and value.
func (d *DualKeyMapPtr[K1, K2, V]) RemoveByRight(key K2) (K1, V, bool, error) {
	var k1 K1
	var v V
	if _, err := d.list.resizable(d.typ.name); err != nil {
		return k1, v, false, err
	}
	index, found := d.k2.Get(key)
	if !found {
		return k1, v, false, nil
	}
	e, err := d.removeAt(index)
	if err != nil {
		return k1, v, false, err
	}
	return e.Key1, e.Value, true, nil
}

// removeAt removes the entry at index by moving the last entry into its
// place. Everything that can fail is checked before the first write, and
// the writes are in-place overwrites followed by shrinks, so a removal
// never stops halfway.
func (d *DualKeyMapPtr[K1, K2, V]) removeAt(index int) (DualKeyEntry[K1, K2, V], error) {
	e, err := d.entryAt(index)
	if err != nil {
		return e, err
	}
	if i, found := d.k2.Get(e.Key2); !found || i != index {
		return e, NewDualKeyMapStateErrorf("entry %d is not indexed by its right key", index)
	}

	last := d.list.Len() - 1
	var moved DualKeyEntry[K1, K2, V]
	var lastPtr1, lastPtr2 *PackedValue[int]
	if index != last {
		moved, err = d.entryAt(last)
		if err != nil {
			return e, err
		}
		var ok1, ok2 bool
		lastPtr1, ok1 = d.k1.ValuePtr(moved.Key1)
		lastPtr2, ok2 = d.k2.ValuePtr(moved.Key2)
		if !ok1 || !ok2 {
			return e, NewDualKeyMapStateErrorf("entry %d is missing from an index", last)
		}
		if lastPtr1.Get() != last || lastPtr2.Get() != last {
			return e, NewDualKeyMapStateErrorf("indices of entry %d disagree", last)
		}
	}

	if index != last {
		if err := d.list.Set(index, moved); err != nil {
			return e, err
		}
		if err := lastPtr1.Set(index); err != nil {
			return e, err
		}
		if err := lastPtr2.Set(index); err != nil {
			return e, err
		}
	}

	if _, _, err := d.list.Pop(); err != nil {
		return e, NewDualKeyMapStateErrorf("failed to remove entry %d: %v", index, err)
	}
	if _, _, err := d.k2.Remove(e.Key2); err != nil {
		return e, NewDualKeyMapStateErrorf("failed to remove right key of entry %d: %v", index, err)
	}
	if _, _, err := d.k1.Remove(e.Key1); err != nil {
		return e, NewDualKeyMapStateErrorf("failed to remove left key of entry %d: %v", index, err)
	}
	return e, nil
}

// Clear removes every entry.
func (d *DualKeyMapPtr[K1, K2, V]) Clear() error {
	if err := d.list.Clear(); err != nil {
		return err
	}
	if err := d.k2.Clear(); err != nil {
		return err
	}
	return d.k1.Clear()
}

// All iterates over the entries in list order. Removal moves the last
// entry into the removed position.
func (d *DualKeyMapPtr[K1, K2, V]) All() iter.Seq[DualKeyEntry[K1, K2, V]] {
	return d.list.Values()
}

// AsShared returns a read-only view valid until the next resize.
func (d *DualKeyMapPtr[K1, K2, V]) AsShared() *DualKeyMapPtr[K1, K2, V] {
	return &DualKeyMapPtr[K1, K2, V]{
		k1:   d.k1.AsShared(),
		k2:   d.k2.AsShared(),
		list: d.list.AsShared(),
		typ:  d.typ,
	}
}

// DualKeyMapType is the unsized type of a DualKeyMap<K1, K2, V, L>. Its
// owned form is the entry list.
type DualKeyMapType[K1, K2, V any] struct {
	key1  OrderedCodec[K1]
	key2  OrderedCodec[K2]
	value Codec[V]
	k1    *MapType[K1, int]
	k2    *MapType[K2, int]
	list  *ListType[DualKeyEntry[K1, K2, V]]
	name  string
}

var _ Type[*DualKeyMapPtr[uint8, uint8, uint8], []DualKeyEntry[uint8, uint8, uint8]] = &DualKeyMapType[uint8, uint8, uint8]{}

// DualKeyMapOf returns the type of dual key maps. length encodes the list
// length prefix and the stored positions.
func DualKeyMapOf[K1, K2, V any](
	key1 OrderedCodec[K1],
	key2 OrderedCodec[K2],
	value Codec[V],
	length LengthCodec,
) *DualKeyMapType[K1, K2, V] {
	index := indexCodec{length: length}
	entry := dualKeyEntryCodec[K1, K2, V]{key1: key1, key2: key2, value: value}
	return &DualKeyMapType[K1, K2, V]{
		key1:  key1,
		key2:  key2,
		value: value,
		k1:    MapOf[K1, int](key1, index, length),
		k2:    MapOf[K2, int](key2, index, length),
		list:  ListOf[DualKeyEntry[K1, K2, V]](entry, length),
		name: fmt.Sprintf(
			"DualKeyMap<%s, %s, %s, %s>",
			key1.TypeName(),
			key2.TypeName(),
			value.TypeName(),
			length.TypeName(),
		),
	}
}

func (t *DualKeyMapType[K1, K2, V]) TypeName() string {
	return t.name
}

func (t *DualKeyMapType[K1, K2, V]) ZSTStatus() ZSTStatus {
	return NoZST
}

func (t *DualKeyMapType[K1, K2, V]) GetPtr(c *Cursor) (*DualKeyMapPtr[K1, K2, V], error) {
	k1, err := t.k1.GetPtr(c)
	if err != nil {
		return nil, err
	}
	k2, err := t.k2.GetPtr(c)
	if err != nil {
		return nil, err
	}
	list, err := t.list.GetPtr(c)
	if err != nil {
		return nil, err
	}
	return &DualKeyMapPtr[K1, K2, V]{k1: k1, k2: k2, list: list, typ: t}, nil
}

func (t *DualKeyMapType[K1, K2, V]) OwnedFromPtr(p *DualKeyMapPtr[K1, K2, V]) ([]DualKeyEntry[K1, K2, V], error) {
	return p.list.ToSlice()
}

func (t *DualKeyMapType[K1, K2, V]) ByteSize(owned []DualKeyEntry[K1, K2, V]) int {
	indexSize := t.key1.Size() + t.key2.Size() + 2*t.list.length.Size()
	return 2*t.list.length.Size() + len(owned)*indexSize + t.list.ByteSize(owned)
}

// indices builds both sorted indices of entries, rejecting duplicate keys.
func (t *DualKeyMapType[K1, K2, V]) indices(entries []DualKeyEntry[K1, K2, V]) (*MapOwned[K1, int], *MapOwned[K2, int], error) {
	k1 := t.k1.NewOwned()
	k2 := t.k2.NewOwned()
	for i, e := range entries {
		if _, replaced := k1.Insert(e.Key1, i); replaced {
			return nil, nil, NewDualKeyMismatchError(fmt.Sprintf("duplicate Key 1 at entry %d", i))
		}
		if _, replaced := k2.Insert(e.Key2, i); replaced {
			return nil, nil, NewDualKeyMismatchError(fmt.Sprintf("duplicate Key 2 at entry %d", i))
		}
	}
	return k1, k2, nil
}

func (t *DualKeyMapType[K1, K2, V]) FromOwned(owned []DualKeyEntry[K1, K2, V], b *[]byte) (int, error) {
	k1, k2, err := t.indices(owned)
	if err != nil {
		return 0, err
	}
	n1, err := t.k1.FromOwned(k1, b)
	if err != nil {
		return 0, err
	}
	n2, err := t.k2.FromOwned(k2, b)
	if err != nil {
		return 0, err
	}
	n3, err := t.list.FromOwned(owned, b)
	if err != nil {
		return 0, err
	}
	return n1 + n2 + n3, nil
}

// InitBytes accepts DefaultInit (empty) or a []DualKeyEntry literal.
func (t *DualKeyMapType[K1, K2, V]) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return 3 * t.list.length.Size(), nil
	case []DualKeyEntry[K1, K2, V]:
		if _, _, err := t.indices(a); err != nil {
			return 0, err
		}
		if err := checkLength(t.list.length, len(a)); err != nil {
			return 0, err
		}
		return t.ByteSize(a), nil
	default:
		return 0, NewUnsupportedInitArgError(t.name, arg)
	}
}

func (t *DualKeyMapType[K1, K2, V]) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		if err := t.k1.Init(b, a); err != nil {
			return err
		}
		if err := t.k2.Init(b, a); err != nil {
			return err
		}
		return t.list.Init(b, a)
	case []DualKeyEntry[K1, K2, V]:
		_, err := t.FromOwned(a, b)
		return err
	default:
		return NewUnsupportedInitArgError(t.name, arg)
	}
}
