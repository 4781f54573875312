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
	"math"
)

// ListPtr is a view of a length-prefixed sequence of packed values:
//
//	[length: L][T; length]
type ListPtr[T any] struct {
	view
	typ *ListType[T]
}

var _ Ptr = &ListPtr[uint8]{}

func (l *ListPtr[T]) DataLen() int {
	return l.typ.length.Size() + l.readLen()*l.typ.elem.Size()
}

func (l *ListPtr[T]) ResizeNotification(source, change int) error {
	if source < l.start {
		l.start += change
		return nil
	}
	if source > l.start && source < l.start+l.DataLen() {
		return NewUnexpectedResizeError(l.typ.name, source, l.start)
	}
	return nil
}

func (l *ListPtr[T]) readLen() int {
	return l.typ.length.Read(l.arena.data[l.start:])
}

func (l *ListPtr[T]) writeLen(n int) {
	l.typ.length.Write(l.arena.data[l.start:], n)
}

func (l *ListPtr[T]) elemOffset(index int) int {
	return l.start + l.typ.length.Size() + index*l.typ.elem.Size()
}

// Len returns the number of elements.
func (l *ListPtr[T]) Len() int {
	l.check(l.typ.name)
	return l.readLen()
}

func (l *ListPtr[T]) IsEmpty() bool {
	return l.Len() == 0
}

func (l *ListPtr[T]) decodeAt(index int) (T, error) {
	off := l.elemOffset(index)
	return l.typ.elem.Decode(l.arena.data[off : off+l.typ.elem.Size()])
}

// TryGet returns the element at index.
func (l *ListPtr[T]) TryGet(index int) (T, error) {
	n := l.Len()
	if index < 0 || index >= n {
		var zero T
		return zero, NewIndexOutOfBoundsError(index, 0, n)
	}
	return l.decodeAt(index)
}

// Get returns the element at index, or false if index is out of bounds.
// It panics if the element bytes aren't a valid T.
func (l *ListPtr[T]) Get(index int) (T, bool) {
	n := l.Len()
	if index < 0 || index >= n {
		var zero T
		return zero, false
	}
	v, err := l.decodeAt(index)
	if err != nil {
		panic(err)
	}
	return v, true
}

// Set overwrites the element at index.
func (l *ListPtr[T]) Set(index int, v T) error {
	if _, err := l.writable(l.typ.name); err != nil {
		return err
	}
	n := l.readLen()
	if index < 0 || index >= n {
		return NewIndexOutOfBoundsError(index, 0, n)
	}
	l.typ.elem.Encode(l.arena.data[l.elemOffset(index):], v)
	return nil
}

// ElemPtr returns a view of the element at index, valid until the next
// resize of the arena.
func (l *ListPtr[T]) ElemPtr(index int) (*PackedValue[T], bool) {
	n := l.Len()
	if index < 0 || index >= n {
		return nil, false
	}
	v := l.detach()
	v.start = l.elemOffset(index)
	return newPackedValue(v, l.typ.elem), true
}

// Insert inserts v at index, shifting the elements at and after index.
func (l *ListPtr[T]) Insert(index int, v T) error {
	return l.InsertAll(index, []T{v})
}

// InsertAll inserts vs at index with a single shift.
func (l *ListPtr[T]) InsertAll(index int, vs []T) error {
	top, err := l.resizable(l.typ.name)
	if err != nil {
		return err
	}
	n := l.readLen()
	if index < 0 || index > n {
		return NewIndexOutOfBoundsError(index, 0, n)
	}
	if len(vs) == 0 {
		return nil
	}
	if err := checkLength(l.typ.length, n+len(vs)); err != nil {
		return err
	}

	size := l.typ.elem.Size()
	pos := l.elemOffset(index)
	return l.grow(top, pos, len(vs)*size, func() error {
		for i, v := range vs {
			l.typ.elem.Encode(l.arena.data[pos+i*size:], v)
		}
		l.writeLen(n + len(vs))
		return nil
	})
}

// Push appends v.
func (l *ListPtr[T]) Push(v T) error {
	return l.InsertAll(l.Len(), []T{v})
}

// PushAll appends vs.
func (l *ListPtr[T]) PushAll(vs []T) error {
	return l.InsertAll(l.Len(), vs)
}

// Pop removes and returns the last element. It returns false for an empty list.
func (l *ListPtr[T]) Pop() (T, bool, error) {
	var zero T
	n := l.Len()
	if n == 0 {
		return zero, false, nil
	}
	v, err := l.Remove(n - 1)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Remove removes and returns the element at index.
func (l *ListPtr[T]) Remove(index int) (T, error) {
	var zero T
	if _, err := l.resizable(l.typ.name); err != nil {
		return zero, err
	}
	n := l.readLen()
	if index < 0 || index >= n {
		return zero, NewIndexOutOfBoundsError(index, 0, n)
	}
	v, err := l.decodeAt(index)
	if err != nil {
		return zero, err
	}
	if err := l.RemoveRange(index, index+1); err != nil {
		return zero, err
	}
	return v, nil
}

// RemoveRange removes the elements in [from, to) with a single shift.
func (l *ListPtr[T]) RemoveRange(from, to int) error {
	top, err := l.resizable(l.typ.name)
	if err != nil {
		return err
	}
	n := l.readLen()
	if from < 0 || from > to || to > n {
		return NewInvalidRangeError(from, to, n)
	}
	if from == to {
		return nil
	}

	return l.shrink(top, l.elemOffset(from), l.elemOffset(to), func() error {
		l.writeLen(n - (to - from))
		return nil
	})
}

// Clear removes every element.
func (l *ListPtr[T]) Clear() error {
	return l.RemoveRange(0, l.Len())
}

func (l *ListPtr[T]) grow(top *exclusiveTop, pos, amount int, after func() error) error {
	if amount == 0 {
		return after()
	}
	return top.addBytes(l.start, pos, amount, after)
}

func (l *ListPtr[T]) shrink(top *exclusiveTop, from, to int, after func() error) error {
	if from == to {
		return after()
	}
	return top.removeBytes(l.start, from, to, after)
}

// BinarySearchBy searches a list sorted according to compare, which returns
// the order of an element relative to the target. It returns the index of a
// matching element and true, or the index where the target would be
// inserted and false.
func (l *ListPtr[T]) BinarySearchBy(compare func(T) int) (int, bool, error) {
	lo, hi := 0, l.Len()
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		v, err := l.decodeAt(mid)
		if err != nil {
			return 0, false, err
		}
		switch c := compare(v); {
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

// All iterates over index, element pairs.
// It panics if an element isn't a valid T.
func (l *ListPtr[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range l.Len() {
			v, err := l.decodeAt(i)
			if err != nil {
				panic(err)
			}
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values iterates over the elements.
func (l *ListPtr[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range l.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// ElemPtrs iterates over views of the elements, for updating them in place.
func (l *ListPtr[T]) ElemPtrs() iter.Seq2[int, *PackedValue[T]] {
	return func(yield func(int, *PackedValue[T]) bool) {
		for i := range l.Len() {
			p, _ := l.ElemPtr(i)
			if !yield(i, p) {
				return
			}
		}
	}
}

// ToSlice copies the elements out of the arena.
func (l *ListPtr[T]) ToSlice() ([]T, error) {
	n := l.Len()
	out := make([]T, n)
	for i := range n {
		v, err := l.decodeAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// AsShared returns a read-only view valid until the next resize.
func (l *ListPtr[T]) AsShared() *ListPtr[T] {
	return &ListPtr[T]{view: l.shared(), typ: l.typ}
}

// ListType is the unsized type of a List<T, L>.
type ListType[T any] struct {
	elem   Codec[T]
	length LengthCodec
	name   string
}

var _ Type[*ListPtr[uint8], []uint8] = &ListType[uint8]{}

// ListOf returns the type of lists of elem with a length prefix encoded by length.
func ListOf[T any](elem Codec[T], length LengthCodec) *ListType[T] {
	return &ListType[T]{
		elem:   elem,
		length: length,
		name:   fmt.Sprintf("List<%s, %s>", elem.TypeName(), length.TypeName()),
	}
}

func (t *ListType[T]) TypeName() string {
	return t.name
}

func (t *ListType[T]) ZSTStatus() ZSTStatus {
	return NoZST
}

// ElemCodec returns the element codec.
func (t *ListType[T]) ElemCodec() Codec[T] {
	return t.elem
}

func (t *ListType[T]) GetPtr(c *Cursor) (*ListPtr[T], error) {
	prefix, err := c.Peek(t.name, t.length.Size())
	if err != nil {
		return nil, err
	}
	n := t.length.Read(prefix)
	if n < 0 {
		return nil, NewNotEnoughBytesError(t.name, n, c.Remaining())
	}
	size := t.length.Size()
	if es := t.elem.Size(); es > 0 {
		// Check before multiplying: a forged 64-bit length can wrap.
		if n > (c.Remaining()-size)/es {
			needed := math.MaxInt
			if n <= (math.MaxInt-size)/es {
				needed = size + n*es
			}
			return nil, NewNotEnoughBytesError(t.name, needed, c.Remaining())
		}
		size += n * es
	}
	start, err := c.Advance(t.name, size)
	if err != nil {
		return nil, err
	}
	return &ListPtr[T]{view: newView(c, start), typ: t}, nil
}

func (t *ListType[T]) OwnedFromPtr(p *ListPtr[T]) ([]T, error) {
	return p.ToSlice()
}

func (t *ListType[T]) ByteSize(owned []T) int {
	return t.length.Size() + len(owned)*t.elem.Size()
}

func (t *ListType[T]) FromOwned(owned []T, b *[]byte) (int, error) {
	if err := checkLength(t.length, len(owned)); err != nil {
		return 0, err
	}
	out, err := advance(b, t.name, t.ByteSize(owned))
	if err != nil {
		return 0, err
	}
	t.length.Write(out, len(owned))
	size := t.elem.Size()
	off := t.length.Size()
	for _, v := range owned {
		t.elem.Encode(out[off:], v)
		off += size
	}
	return len(out), nil
}

// InitBytes accepts DefaultInit (empty) or a []T literal.
func (t *ListType[T]) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return t.length.Size(), nil
	case []T:
		if err := checkLength(t.length, len(a)); err != nil {
			return 0, err
		}
		return t.ByteSize(a), nil
	default:
		return 0, NewUnsupportedInitArgError(t.name, arg)
	}
}

func (t *ListType[T]) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		out, err := advance(b, t.name, t.length.Size())
		if err != nil {
			return err
		}
		t.length.Write(out, 0)
		return nil
	case []T:
		_, err := t.FromOwned(a, b)
		return err
	default:
		return NewUnsupportedInitArgError(t.name, arg)
	}
}
