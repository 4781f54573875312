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
	"sort"
)

const (
	u32Size = 4

	// unsized size, length, copy of length
	unsizedListHeaderSize = 3 * u32Size
)

// UnsizedListPtr is a view of a list of unsized elements:
//
//	[unsized size: u32][length: u32][offset: u32; length][length: u32][element bytes]
//
// Offsets are relative to the start of the element bytes, so growing one
// element only moves the offsets after it.
type UnsizedListPtr[P Ptr, O any] struct {
	view
	typ *UnsizedListType[P, O]
	// inner holds the element views handed out by Element. They are
	// notified of resizes inside the list.
	inner []P
	elems *lease
}

var _ Ptr = &UnsizedListPtr[*ListPtr[uint8], []uint8]{}

func (l *UnsizedListPtr[P, O]) u32At(off int) int {
	return int(le.Uint32(l.arena.data[off:]))
}

func (l *UnsizedListPtr[P, O]) putU32At(off int, v int) {
	le.PutUint32(l.arena.data[off:], uint32(v))
}

func (l *UnsizedListPtr[P, O]) unsizedSize() int {
	return l.u32At(l.start)
}

func (l *UnsizedListPtr[P, O]) length() int {
	return l.u32At(l.start + u32Size)
}

// offsetSlot returns where the slot of index starts. Slots hold the element
// offset, followed by a key for maps.
func (l *UnsizedListPtr[P, O]) offsetSlot(index int) int {
	return l.start + 2*u32Size + index*l.typ.slotSize
}

func (l *UnsizedListPtr[P, O]) offset(index int) int {
	return l.u32At(l.offsetSlot(index))
}

func (l *UnsizedListPtr[P, O]) dataStart() int {
	return l.start + unsizedListHeaderSize + l.length()*l.typ.slotSize
}

// elemRange returns the element bytes of index relative to dataStart.
func (l *UnsizedListPtr[P, O]) elemRange(index int) (int, int) {
	from := l.offset(index)
	if index+1 < l.length() {
		return from, l.offset(index + 1)
	}
	return from, l.unsizedSize()
}

// boundary returns the relative offset element index starts at, which is
// the end of the element bytes for index == length.
func (l *UnsizedListPtr[P, O]) boundary(index int) int {
	if index < l.length() {
		return l.offset(index)
	}
	return l.unsizedSize()
}

func (l *UnsizedListPtr[P, O]) DataLen() int {
	return unsizedListHeaderSize + l.length()*l.typ.slotSize + l.unsizedSize()
}

func (l *UnsizedListPtr[P, O]) ResizeNotification(source, change int) error {
	if source < l.start {
		l.start += change
		for _, p := range l.inner {
			if err := p.ResizeNotification(source, change); err != nil {
				return err
			}
		}
		return nil
	}
	if source == l.start || source >= l.start+l.DataLen() {
		return nil
	}

	dataStart := l.dataStart()
	if source < dataStart {
		return NewUnexpectedResizeError(l.typ.name, source, l.start)
	}

	for _, p := range l.inner {
		if err := p.ResizeNotification(source, change); err != nil {
			return err
		}
	}

	l.putU32At(l.start, l.unsizedSize()+change)

	// Elements starting after source moved.
	adjusted := source - dataStart
	n := l.length()
	first := sort.Search(n, func(i int) bool {
		return l.offset(i) > adjusted
	})
	for i := first; i < n; i++ {
		l.putU32At(l.offsetSlot(i), l.offset(i)+change)
	}
	return nil
}

// Len returns the number of elements.
func (l *UnsizedListPtr[P, O]) Len() int {
	l.check(l.typ.name)
	return l.length()
}

func (l *UnsizedListPtr[P, O]) IsEmpty() bool {
	return l.Len() == 0
}

func (l *UnsizedListPtr[P, O]) checkIndex(index int) error {
	if n := l.Len(); index < 0 || index >= n {
		return NewIndexOutOfBoundsError(index, 0, n)
	}
	return nil
}

// Get returns a read-only view of the element at index, valid until the
// next resize.
func (l *UnsizedListPtr[P, O]) Get(index int) (P, error) {
	var zero P
	if err := l.checkIndex(index); err != nil {
		return zero, err
	}
	ds := l.dataStart()
	from, to := l.elemRange(index)
	return l.typ.elem.GetPtr(l.sharedCursorAt(ds+from, ds+to))
}

// Element returns a writable view of the element at index. Resizes of the
// element are propagated to the list and the rest of the arena. Element
// views are invalidated by inserting into or removing from the list.
func (l *UnsizedListPtr[P, O]) Element(index int) (P, error) {
	var zero P
	if _, err := l.resizable(l.typ.name); err != nil {
		return zero, err
	}
	if err := l.checkIndex(index); err != nil {
		return zero, err
	}
	ds := l.dataStart()
	from, to := l.elemRange(index)
	if l.elems == nil {
		l.elems = newLease(l.lease)
	}
	c := l.cursorAt(ds+from, ds+to)
	c.lease = l.elems
	p, err := l.typ.elem.GetPtr(c)
	if err != nil {
		return zero, err
	}
	l.inner = append(l.inner, p)
	return p, nil
}

// dropElements revokes the element views handed out by Element, once the
// element offsets they were decoded at no longer hold.
func (l *UnsizedListPtr[P, O]) dropElements() {
	l.elems.revoke()
	l.elems = nil
	l.inner = nil
}

// Insert inserts an element initialized from arg at index.
func (l *UnsizedListPtr[P, O]) Insert(index int, arg any) error {
	size, err := l.typ.elem.InitBytes(arg)
	if err != nil {
		return err
	}
	return l.insert(index, nil, size, l.initWriter(arg))
}

// InsertOwned inserts owned at index.
func (l *UnsizedListPtr[P, O]) InsertOwned(index int, owned O) error {
	return l.insert(index, nil, l.typ.elem.ByteSize(owned), l.ownedWriter(owned))
}

func (l *UnsizedListPtr[P, O]) initWriter(arg any) func(b *[]byte) error {
	return func(b *[]byte) error {
		return l.typ.elem.Init(b, arg)
	}
}

func (l *UnsizedListPtr[P, O]) ownedWriter(owned O) func(b *[]byte) error {
	return func(b *[]byte) error {
		_, err := l.typ.elem.FromOwned(owned, b)
		return err
	}
}

// Push appends an element initialized from arg.
func (l *UnsizedListPtr[P, O]) Push(arg any) error {
	return l.Insert(l.Len(), arg)
}

// PushOwned appends owned.
func (l *UnsizedListPtr[P, O]) PushOwned(owned O) error {
	return l.InsertOwned(l.Len(), owned)
}

// insert opens a slot and size element bytes at index. key, if set, fills the
// key part of the slot.
func (l *UnsizedListPtr[P, O]) insert(index int, key func(b []byte), size int, write func(b *[]byte) error) error {
	top, err := l.resizable(l.typ.name)
	if err != nil {
		return err
	}
	n := l.length()
	if index < 0 || index > n {
		return NewIndexOutOfBoundsError(index, 0, n)
	}
	if err := checkLength(LenU32, n+1); err != nil {
		return err
	}
	if err := checkLength(LenU32, l.unsizedSize()+size); err != nil {
		return err
	}

	from := l.boundary(index)
	pos := l.dataStart() + from
	slot := l.offsetSlot(index)
	slotSize := l.typ.slotSize
	unsized := l.unsizedSize()

	return top.addBytes(l.start, pos, slotSize+size, func() error {
		data := l.arena.data
		elem := data[pos+slotSize : pos+slotSize+size : pos+slotSize+size]
		if err := write(&elem); err != nil {
			return err
		}
		if len(elem) != 0 {
			return NewEncodingError(fmt.Errorf("%s element left %d of %d bytes unwritten", l.typ.name, len(elem), size))
		}
		l.dropElements()

		// Open the slot: move the later slots, the length copy and the
		// element bytes before pos up by one slot.
		copy(data[slot+slotSize:pos+slotSize], data[slot:pos])
		l.putU32At(slot, from)
		if key != nil {
			key(data[slot+u32Size : slot+slotSize])
		}

		l.putU32At(l.start+u32Size, n+1)
		l.putU32At(l.offsetSlot(n+1), n+1)
		l.putU32At(l.start, unsized+size)
		for i := index + 1; i <= n; i++ {
			l.putU32At(l.offsetSlot(i), l.offset(i)+size)
		}
		return nil
	})
}

// Remove removes the element at index.
func (l *UnsizedListPtr[P, O]) Remove(index int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	return l.RemoveRange(index, index+1)
}

// RemoveRange removes the elements in [from, to) with a single shift.
func (l *UnsizedListPtr[P, O]) RemoveRange(from, to int) error {
	top, err := l.resizable(l.typ.name)
	if err != nil {
		return err
	}
	n := l.length()
	if from < 0 || from > to || to > n {
		return NewInvalidRangeError(from, to, n)
	}
	if from == to {
		return nil
	}

	k := to - from
	offFrom := l.boundary(from)
	removed := l.boundary(to) - offFrom
	ds := l.dataStart()
	unsized := l.unsizedSize()
	l.dropElements()

	// Close the offset slots of the removed elements: move the later
	// offsets, the length copy and the element bytes before them down.
	data := l.arena.data
	copy(data[l.offsetSlot(from):], data[l.offsetSlot(to):ds+offFrom])

	gapStart := ds + offFrom - k*l.typ.slotSize
	return top.removeBytes(l.start, gapStart, ds+offFrom+removed, func() error {
		l.putU32At(l.start+u32Size, n-k)
		l.putU32At(l.offsetSlot(n-k), n-k)
		l.putU32At(l.start, unsized-removed)
		for i := from; i < n-k; i++ {
			l.putU32At(l.offsetSlot(i), l.offset(i)-removed)
		}
		return nil
	})
}

// Set replaces the element at index with one initialized from arg.
func (l *UnsizedListPtr[P, O]) Set(index int, arg any) error {
	size, err := l.typ.elem.InitBytes(arg)
	if err != nil {
		return err
	}
	return l.set(index, size, l.initWriter(arg))
}

// SetOwned replaces the element at index with owned.
func (l *UnsizedListPtr[P, O]) SetOwned(index int, owned O) error {
	return l.set(index, l.typ.elem.ByteSize(owned), l.ownedWriter(owned))
}

// set resizes the element at index to size and lets write lay it out. The
// list is notified like for a resize made through an element view.
func (l *UnsizedListPtr[P, O]) set(index int, size int, write func(b *[]byte) error) error {
	top, err := l.resizable(l.typ.name)
	if err != nil {
		return err
	}
	if err := l.checkIndex(index); err != nil {
		return err
	}
	from, to := l.elemRange(index)
	if err := checkLength(LenU32, l.unsizedSize()-(to-from)+size); err != nil {
		return err
	}

	elemStart := l.dataStart() + from
	return top.setRegion(l.typ.name, elemStart, elemStart, to-from, size, func(b *[]byte) error {
		if err := write(b); err != nil {
			return err
		}
		l.dropElements()
		return nil
	})
}

// Clear removes every element.
func (l *UnsizedListPtr[P, O]) Clear() error {
	return l.RemoveRange(0, l.Len())
}

// All iterates over read-only views of the elements.
func (l *UnsizedListPtr[P, O]) All() iter.Seq2[int, P] {
	return func(yield func(int, P) bool) {
		for i := range l.Len() {
			p, err := l.Get(i)
			if err != nil {
				panic(err)
			}
			if !yield(i, p) {
				return
			}
		}
	}
}

// AsShared returns a read-only view valid until the next resize.
func (l *UnsizedListPtr[P, O]) AsShared() *UnsizedListPtr[P, O] {
	return &UnsizedListPtr[P, O]{view: l.shared(), typ: l.typ}
}

// UnsizedListType is the unsized type of lists of unsized elements.
type UnsizedListType[P Ptr, O any] struct {
	elem     Type[P, O]
	name     string
	slotSize int
}

var _ Type[*UnsizedListPtr[*ListPtr[uint8], []uint8], [][]uint8] = &UnsizedListType[*ListPtr[uint8], []uint8]{}

// UnsizedListOf returns the type of lists of elem. It panics if elem may be
// zero-sized, since element offsets must be strictly increasing.
func UnsizedListOf[P Ptr, O any](elem Type[P, O]) *UnsizedListType[P, O] {
	return newUnsizedListType(elem, fmt.Sprintf("UnsizedList<%s>", elem.TypeName()), u32Size)
}

func newUnsizedListType[P Ptr, O any](elem Type[P, O], name string, slotSize int) *UnsizedListType[P, O] {
	if elem.ZSTStatus() != NoZST {
		panic(NewZSTPositionError(name))
	}
	return &UnsizedListType[P, O]{elem: elem, name: name, slotSize: slotSize}
}

func (t *UnsizedListType[P, O]) TypeName() string {
	return t.name
}

func (t *UnsizedListType[P, O]) ZSTStatus() ZSTStatus {
	return NoZST
}

func (t *UnsizedListType[P, O]) GetPtr(c *Cursor) (*UnsizedListPtr[P, O], error) {
	header, err := c.Peek(t.name, 2*u32Size)
	if err != nil {
		return nil, err
	}
	unsized := int(le.Uint32(header))
	n := int(le.Uint32(header[u32Size:]))

	size := unsizedListHeaderSize + n*t.slotSize + unsized
	start, err := c.Advance(t.name, size)
	if err != nil {
		return nil, err
	}
	if lenCopy := int(le.Uint32(c.arena.data[start+2*u32Size+n*t.slotSize:])); lenCopy != n {
		return nil, NewDecodingError(fmt.Errorf("%s length %d doesn't match its copy %d", t.name, n, lenCopy))
	}
	return &UnsizedListPtr[P, O]{view: newView(c, start), typ: t}, nil
}

func (t *UnsizedListType[P, O]) OwnedFromPtr(p *UnsizedListPtr[P, O]) ([]O, error) {
	out := make([]O, 0, p.Len())
	ds := p.dataStart()
	for i := range p.Len() {
		from, to := p.elemRange(i)
		elem, err := t.elem.GetPtr(p.sharedCursorAt(ds+from, ds+to))
		if err != nil {
			return nil, err
		}
		owned, err := t.elem.OwnedFromPtr(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, owned)
	}
	return out, nil
}

func (t *UnsizedListType[P, O]) ByteSize(owned []O) int {
	size := unsizedListHeaderSize + len(owned)*t.slotSize
	for _, o := range owned {
		size += t.elem.ByteSize(o)
	}
	return size
}

// writeElements lays out n elements, each written by write(i, b). key, if
// set, fills the key part of each slot.
func (t *UnsizedListType[P, O]) writeElements(
	b *[]byte,
	n int,
	key func(i int, slot []byte),
	write func(i int, b *[]byte) (int, error),
) (int, error) {
	if err := checkLength(LenU32, n); err != nil {
		return 0, err
	}
	header, err := advance(b, t.name, 2*u32Size)
	if err != nil {
		return 0, err
	}
	slots, err := advance(b, t.name, n*t.slotSize)
	if err != nil {
		return 0, err
	}
	lenCopy, err := advance(b, t.name, u32Size)
	if err != nil {
		return 0, err
	}
	le.PutUint32(header[u32Size:], uint32(n))
	le.PutUint32(lenCopy, uint32(n))

	written := 0
	for i := range n {
		slot := slots[i*t.slotSize : (i+1)*t.slotSize]
		le.PutUint32(slot, uint32(written))
		if key != nil {
			key(i, slot[u32Size:])
		}
		w, err := write(i, b)
		if err != nil {
			return 0, err
		}
		written += w
	}
	if err := checkLength(LenU32, written); err != nil {
		return 0, err
	}
	le.PutUint32(header, uint32(written))
	return unsizedListHeaderSize + n*t.slotSize + written, nil
}

func (t *UnsizedListType[P, O]) FromOwned(owned []O, b *[]byte) (int, error) {
	return t.writeElements(b, len(owned), nil, func(i int, b *[]byte) (int, error) {
		return t.elem.FromOwned(owned[i], b)
	})
}

// InitBytes accepts DefaultInit (empty), a []O, or a []any of element
// init arguments.
func (t *UnsizedListType[P, O]) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return unsizedListHeaderSize, nil
	case []O:
		return t.ByteSize(a), nil
	case []any:
		size := unsizedListHeaderSize + len(a)*t.slotSize
		for _, elemArg := range a {
			n, err := t.elem.InitBytes(elemArg)
			if err != nil {
				return 0, err
			}
			size += n
		}
		return size, nil
	default:
		return 0, NewUnsupportedInitArgError(t.name, arg)
	}
}

func (t *UnsizedListType[P, O]) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		_, err := t.writeElements(b, 0, nil, nil)
		return err
	case []O:
		_, err := t.FromOwned(a, b)
		return err
	case []any:
		_, err := t.writeElements(b, len(a), nil, func(i int, b *[]byte) (int, error) {
			before := len(*b)
			if err := t.elem.Init(b, a[i]); err != nil {
				return 0, err
			}
			return before - len(*b), nil
		})
		return err
	default:
		return NewUnsupportedInitArgError(t.name, arg)
	}
}
