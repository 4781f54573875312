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

// SetPtr is a view of a sorted list of unique keys.
type SetPtr[K any] struct {
	list *ListPtr[K]
	typ  *SetType[K]
}

var _ Ptr = &SetPtr[uint8]{}

func (s *SetPtr[K]) Start() int {
	return s.list.Start()
}

func (s *SetPtr[K]) DataLen() int {
	return s.list.DataLen()
}

func (s *SetPtr[K]) ResizeNotification(source, change int) error {
	return s.list.ResizeNotification(source, change)
}

func (s *SetPtr[K]) Len() int {
	return s.list.Len()
}

func (s *SetPtr[K]) IsEmpty() bool {
	return s.list.IsEmpty()
}

func (s *SetPtr[K]) index(key K) (int, bool, error) {
	return s.list.BinarySearchBy(func(k K) int {
		return s.typ.key.Compare(k, key)
	})
}

func (s *SetPtr[K]) Contains(key K) bool {
	_, found, err := s.index(key)
	if err != nil {
		panic(err)
	}
	return found
}

// Insert adds key. It returns false if key was already present.
func (s *SetPtr[K]) Insert(key K) (bool, error) {
	if _, err := s.list.resizable(s.typ.name); err != nil {
		return false, err
	}
	i, found, err := s.index(key)
	if err != nil || found {
		return false, err
	}
	if err := s.list.Insert(i, key); err != nil {
		return false, err
	}
	return true, nil
}

// Remove removes key. It returns false if key wasn't present.
func (s *SetPtr[K]) Remove(key K) (bool, error) {
	if _, err := s.list.resizable(s.typ.name); err != nil {
		return false, err
	}
	i, found, err := s.index(key)
	if err != nil || !found {
		return false, err
	}
	if _, err := s.list.Remove(i); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SetPtr[K]) Clear() error {
	return s.list.Clear()
}

// GetByIndex returns the key at a list position.
func (s *SetPtr[K]) GetByIndex(index int) (K, bool) {
	return s.list.Get(index)
}

// All iterates over the keys in order.
func (s *SetPtr[K]) All() iter.Seq[K] {
	return s.list.Values()
}

// AsShared returns a read-only view valid until the next resize.
func (s *SetPtr[K]) AsShared() *SetPtr[K] {
	return &SetPtr[K]{list: s.list.AsShared(), typ: s.typ}
}

// SetType is the unsized type of a Set<K, L>. Its owned form is a sorted
// slice of unique keys.
type SetType[K any] struct {
	key  OrderedCodec[K]
	list *ListType[K]
	name string
}

var _ Type[*SetPtr[uint8], []uint8] = &SetType[uint8]{}

// SetOf returns the type of sets of key with a length prefix encoded by length.
func SetOf[K any](key OrderedCodec[K], length LengthCodec) *SetType[K] {
	return &SetType[K]{
		key:  key,
		list: ListOf(Codec[K](key), length),
		name: fmt.Sprintf("Set<%s, %s>", key.TypeName(), length.TypeName()),
	}
}

func (t *SetType[K]) TypeName() string {
	return t.name
}

func (t *SetType[K]) ZSTStatus() ZSTStatus {
	return NoZST
}

func (t *SetType[K]) GetPtr(c *Cursor) (*SetPtr[K], error) {
	list, err := t.list.GetPtr(c)
	if err != nil {
		return nil, err
	}
	return &SetPtr[K]{list: list, typ: t}, nil
}

func (t *SetType[K]) OwnedFromPtr(p *SetPtr[K]) ([]K, error) {
	return p.list.ToSlice()
}

func (t *SetType[K]) normalize(keys []K) []K {
	return sortedUnique(keys, t.key.Compare)
}

func (t *SetType[K]) ByteSize(owned []K) int {
	return t.list.ByteSize(t.normalize(owned))
}

// FromOwned writes the keys sorted, dropping duplicates.
func (t *SetType[K]) FromOwned(owned []K, b *[]byte) (int, error) {
	return t.list.FromOwned(t.normalize(owned), b)
}

// InitBytes accepts DefaultInit (empty) or a []K literal.
func (t *SetType[K]) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return t.list.InitBytes(a)
	case []K:
		return t.list.InitBytes(t.normalize(a))
	default:
		return 0, NewUnsupportedInitArgError(t.name, arg)
	}
}

func (t *SetType[K]) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		return t.list.Init(b, a)
	case []K:
		return t.list.Init(b, t.normalize(a))
	default:
		return NewUnsupportedInitArgError(t.name, arg)
	}
}
