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
	"github.com/starframe/unsize"
)

// ByteSet is a standalone arena holding one value of an unsized type, with
// the default growth ceiling.
type ByteSet[P unsize.Ptr, O any] struct {
	typ   unsize.Type[P, O]
	arena *unsize.Arena
}

// NewByteSet lays out owned in a new ByteSet.
func NewByteSet[P unsize.Ptr, O any](t unsize.Type[P, O], owned O) (*ByteSet[P, O], error) {
	data, err := unsize.EncodeOwned[O](t, owned)
	if err != nil {
		return nil, err
	}
	return NewByteSetFromBytes(t, data), nil
}

// NewByteSetFromInit lays out the value initialized from arg in a new ByteSet.
func NewByteSetFromInit[P unsize.Ptr, O any](t unsize.Type[P, O], arg any) (*ByteSet[P, O], error) {
	data, err := unsize.EncodeInit(t, arg)
	if err != nil {
		return nil, err
	}
	return NewByteSetFromBytes(t, data), nil
}

// NewDefaultByteSet lays out the default value of t in a new ByteSet.
func NewDefaultByteSet[P unsize.Ptr, O any](t unsize.Type[P, O]) (*ByteSet[P, O], error) {
	return NewByteSetFromInit(t, unsize.DefaultInit{})
}

// NewByteSetFromBytes wraps data, which must hold a value of t.
func NewByteSetFromBytes[P unsize.Ptr, O any](t unsize.Type[P, O], data []byte) *ByteSet[P, O] {
	return &ByteSet[P, O]{typ: t, arena: unsize.NewArena(data)}
}

func (b *ByteSet[P, O]) Arena() *unsize.Arena {
	return b.arena
}

func (b *ByteSet[P, O]) Bytes() []byte {
	return b.arena.Bytes()
}

func (b *ByteSet[P, O]) Len() int {
	return b.arena.Len()
}

// Data borrows the value shared.
func (b *ByteSet[P, O]) Data() (*unsize.SharedWrapper[P], error) {
	return unsize.NewSharedWrapper[P, O](b.arena, b.typ)
}

// Mut borrows the value exclusively.
func (b *ByteSet[P, O]) Mut() (*unsize.ExclusiveWrapper[P, O], error) {
	return unsize.NewExclusiveWrapper[P, O](b.arena, b.typ)
}

// Owned decodes the owned form of the value.
func (b *ByteSet[P, O]) Owned() (O, error) {
	return unsize.Owned[P, O](b.typ, b.arena.Bytes())
}

// Update runs f with an exclusive borrow of the value.
func (b *ByteSet[P, O]) Update(f func(w *unsize.ExclusiveWrapper[P, O]) error) error {
	w, err := b.Mut()
	if err != nil {
		return err
	}
	defer w.Close()
	return f(w)
}
