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
	"slices"
)

// exclusiveTop owns the resize protocol of an exclusively borrowed arena.
// Every view decoded through an ExclusiveWrapper holds it.
type exclusiveTop struct {
	arena *Arena
	root  Ptr
}

// addBytes opens amount zeroed bytes at start, calls after, then notifies
// the view tree that source grew by amount. If after fails, after must have
// restored the bytes it wrote outside the gap. The gap is closed again and no
// notification is sent.
func (t *exclusiveTop) addBytes(source, start, amount int, after func() error) error {
	oldLen := t.arena.Len()
	if start < 0 || start > oldLen {
		panic(NewPointerOutOfBoundsError(start, 0, oldLen))
	}
	if amount < 0 {
		panic(NewPointerOutOfBoundsError(start+amount, start, oldLen))
	}
	if amount == 0 {
		return nil
	}

	if err := t.arena.Realloc(oldLen + amount); err != nil {
		return err
	}

	data := t.arena.data
	if start != oldLen {
		copy(data[start+amount:], data[start:oldLen])
		clear(data[start : start+amount])
	}

	if after != nil {
		if err := after(); err != nil {
			copy(data[start:], data[start+amount:oldLen+amount])
			t.arena.restoreLen(oldLen)
			return err
		}
	}

	return t.notify(source, amount)
}

// removeBytes closes [start, end), calls after, then notifies the view tree
// that source shrank. If after fails, the closed bytes are reopened with
// their old contents and no notification is sent.
func (t *exclusiveTop) removeBytes(source, start, end int, after func() error) error {
	oldLen := t.arena.Len()
	if start < 0 || start > oldLen {
		panic(NewPointerOutOfBoundsError(start, 0, oldLen))
	}
	if end < start || end > oldLen {
		panic(NewPointerOutOfBoundsError(end, start, oldLen))
	}
	amount := end - start
	if amount == 0 {
		return nil
	}

	data := t.arena.data
	var removed []byte
	if after != nil {
		removed = slices.Clone(data[start:end])
	}
	copy(data[start:], data[end:oldLen])

	if err := t.arena.Realloc(oldLen - amount); err != nil {
		return err
	}

	if after != nil {
		if err := after(); err != nil {
			t.arena.restoreLen(oldLen)
			copy(data[end:oldLen], data[start:oldLen-amount])
			copy(data[start:end], removed)
			return err
		}
	}

	return t.notify(source, -amount)
}

func (t *exclusiveTop) notify(source, change int) error {
	if t.root == nil {
		return nil
	}
	return t.root.ResizeNotification(source, change)
}

// setRegion resizes the curLen bytes at start to newLen bytes and passes the
// new region to write, which must fill all of it. If write fails, the region
// is put back as it was and the view tree isn't notified.
func (t *exclusiveTop) setRegion(
	typeName string,
	source int,
	start int,
	curLen int,
	newLen int,
	write func(b *[]byte) error,
) error {
	fill := func() error {
		region := t.arena.data[start : start+newLen : start+newLen]
		saved := slices.Clone(region)
		clear(region)
		w := region
		err := write(&w)
		if err == nil && len(w) != 0 {
			err = NewEncodingError(fmt.Errorf("%s left %d of %d bytes unwritten", typeName, len(w), newLen))
		}
		if err != nil {
			copy(region, saved)
		}
		return err
	}

	switch {
	case newLen > curLen:
		return t.addBytes(source, start, newLen-curLen, fill)
	case newLen < curLen:
		return t.removeBytes(source, start, start+curLen-newLen, fill)
	default:
		return fill()
	}
}

func mustValidType(typeName string, status ZSTStatus) {
	if status == MiddleZST {
		panic(NewZSTPositionError(typeName))
	}
}

// SharedWrapper is a read-only borrow of an arena decoded as one value.
type SharedWrapper[P Ptr] struct {
	arena    *Arena
	ptr      P
	released bool
}

// NewSharedWrapper borrows arena shared and decodes a value of t from its start.
func NewSharedWrapper[P Ptr, O any](arena *Arena, t UnsizedType[P, O]) (*SharedWrapper[P], error) {
	mustValidType(t.TypeName(), t.ZSTStatus())

	if err := arena.borrowShared(); err != nil {
		return nil, err
	}

	p, err := t.GetPtr(newCursor(arena, nil, 0, arena.Len()))
	if err != nil {
		arena.releaseShared()
		return nil, err
	}

	return &SharedWrapper[P]{arena: arena, ptr: p}, nil
}

// Data returns the decoded view.
func (w *SharedWrapper[P]) Data() P {
	return w.ptr
}

// Close releases the borrow.
func (w *SharedWrapper[P]) Close() {
	if w.released {
		return
	}
	w.released = true
	w.arena.releaseShared()
}

// ExclusiveWrapper is the mutation gateway of an arena: it holds the only
// writable borrow and routes every resize of the views decoded through it.
type ExclusiveWrapper[P Ptr, O any] struct {
	top      *exclusiveTop
	lease    *lease
	typ      UnsizedType[P, O]
	ptr      P
	released bool
}

// NewExclusiveWrapper borrows arena exclusively and decodes a value of t from its start.
func NewExclusiveWrapper[P Ptr, O any](arena *Arena, t UnsizedType[P, O]) (*ExclusiveWrapper[P, O], error) {
	mustValidType(t.TypeName(), t.ZSTStatus())

	if err := arena.borrowExclusive(); err != nil {
		return nil, err
	}

	w := &ExclusiveWrapper[P, O]{
		top: &exclusiveTop{arena: arena},
		typ: t,
	}
	if err := w.reload(); err != nil {
		arena.releaseExclusive()
		return nil, err
	}
	return w, nil
}

// reload decodes the root again. Views decoded before are revoked.
func (w *ExclusiveWrapper[P, O]) reload() error {
	arena := w.top.arena
	w.lease.revoke()
	c := newCursor(arena, w.top, 0, arena.Len())
	w.lease = c.pushLease()
	p, err := w.typ.GetPtr(c)
	if err != nil {
		return err
	}
	w.ptr = p
	w.top.root = p
	return nil
}

// Data returns the live root view.
func (w *ExclusiveWrapper[P, O]) Data() P {
	return w.ptr
}

// Arena returns the borrowed arena.
func (w *ExclusiveWrapper[P, O]) Arena() *Arena {
	return w.top.arena
}

// Owned copies the root value out of the arena.
func (w *ExclusiveWrapper[P, O]) Owned() (O, error) {
	return w.typ.OwnedFromPtr(w.ptr)
}

// SetFromInit replaces the root value with a fresh one initialized from arg.
func (w *ExclusiveWrapper[P, O]) SetFromInit(arg any) error {
	init, ok := any(w.typ).(UnsizedInit)
	if !ok {
		return NewUnsupportedInitArgError(w.typ.TypeName(), arg)
	}
	size, err := init.InitBytes(arg)
	if err != nil {
		return err
	}

	start := w.ptr.Start()
	err = w.top.setRegion(w.typ.TypeName(), start, start, w.ptr.DataLen(), size, func(b *[]byte) error {
		return init.Init(b, arg)
	})
	if err != nil {
		return err
	}
	return w.reload()
}

// SetFromOwned replaces the root value with owned.
func (w *ExclusiveWrapper[P, O]) SetFromOwned(owned O) error {
	from, ok := any(w.typ).(FromOwned[O])
	if !ok {
		return NewOwnedTypeError(w.typ.TypeName(), owned)
	}

	start := w.ptr.Start()
	size := from.ByteSize(owned)
	err := w.top.setRegion(w.typ.TypeName(), start, start, w.ptr.DataLen(), size, func(b *[]byte) error {
		_, err := from.FromOwned(owned, b)
		return err
	})
	if err != nil {
		return err
	}
	return w.reload()
}

// Close checks the root view still lies inside the arena and releases the
// borrow. Views decoded through w can't be used afterwards.
func (w *ExclusiveWrapper[P, O]) Close() {
	if w.released {
		return
	}
	w.released = true
	w.lease.revoke()

	arena := w.top.arena
	defer arena.releaseExclusive()

	if start := w.ptr.Start(); start != 0 {
		panic(NewPointerOutOfBoundsError(start, 0, 0))
	}
	if end := w.ptr.DataLen(); end > arena.Len() {
		panic(NewPointerOutOfBoundsError(end, 0, arena.Len()))
	}
}
