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

import "fmt"

// Ptr is a live view of an unsized value inside an arena.
//
// Views address the arena by offset. After any resize the resize protocol
// calls ResizeNotification on the root view with the offset the resize
// happened at and the signed byte change, and every view passes it down to
// the views it holds:
//   - source before Start: the view moved, shift it by change.
//   - source at Start: the view itself was resized; whoever resized it
//     fixes it up.
//   - source past Start: the view must either contain a nested view which
//     handles it, or report an error because it can't be resized there.
type Ptr interface {
	Start() int
	DataLen() int
	ResizeNotification(source, change int) error
}

// ZSTStatus describes where a type has zero-sized components.
type ZSTStatus uint8

const (
	// NoZST types always occupy at least one byte.
	NoZST ZSTStatus = iota
	// TrailingZST types may be zero-sized and may only be the last field.
	TrailingZST
	// MiddleZST marks a composition with a zero-sized component in front
	// of another field. No valid type has this status.
	MiddleZST
)

func (s ZSTStatus) String() string {
	switch s {
	case NoZST:
		return "NoZST"
	case TrailingZST:
		return "TrailingZST"
	case MiddleZST:
		return "MiddleZST"
	default:
		return fmt.Sprintf("ZSTStatus(%d)", uint8(s))
	}
}

// combineZST returns the status of a followed by b.
func combineZST(a, b ZSTStatus) ZSTStatus {
	if a != NoZST {
		return MiddleZST
	}
	return b
}

// UnsizedType interprets a prefix of an arena window as a live view.
type UnsizedType[P Ptr, O any] interface {
	TypeName() string
	ZSTStatus() ZSTStatus
	// GetPtr decodes a view from the front of c, advancing it.
	GetPtr(c *Cursor) (P, error)
	// OwnedFromPtr copies the value out of the arena.
	OwnedFromPtr(p P) (O, error)
}

// FromOwned lays out an owned value.
type FromOwned[O any] interface {
	// ByteSize returns the exact number of bytes FromOwned writes.
	ByteSize(owned O) int
	// FromOwned writes owned to the front of b, advancing it, and returns
	// the number of bytes written.
	FromOwned(owned O, b *[]byte) (int, error)
}

// UnsizedInit lays out a fresh value directly from an init argument, with
// no owned value in between. DefaultInit is accepted by every type.
type UnsizedInit interface {
	InitBytes(arg any) (int, error)
	Init(b *[]byte, arg any) error
}

// Type is the full contract of the built-in unsized types.
type Type[P Ptr, O any] interface {
	UnsizedType[P, O]
	FromOwned[O]
	UnsizedInit
}

// DefaultInit initializes a type to its default value: empty collections,
// zeroed sized values, the default variant of enums.
type DefaultInit struct{}

// lease scopes the exclusive views decoded under it. Replacing a value
// revokes its lease, and with it every view decoded beneath the value.
type lease struct {
	parent  *lease
	revoked bool
}

func newLease(parent *lease) *lease {
	return &lease{parent: parent}
}

func (l *lease) revoke() {
	if l != nil {
		l.revoked = true
	}
}

func (l *lease) live() bool {
	for ; l != nil; l = l.parent {
		if l.revoked {
			return false
		}
	}
	return true
}

// view is the (arena, offset) handle shared by all views.
type view struct {
	arena *Arena
	// top is nil for shared views.
	top   *exclusiveTop
	start int
	lease *lease
	// detached views aren't reached by resize notifications and are only
	// valid until the next resize of the arena.
	detached bool
	gen      uint64
}

func newView(c *Cursor, start int) view {
	if c.detached {
		return view{arena: c.arena, start: start, lease: c.lease, detached: true, gen: c.arena.generation}
	}
	return view{arena: c.arena, top: c.top, start: start, lease: c.lease}
}

func (v *view) Start() int {
	return v.start
}

func (v *view) check(typeName string) {
	if !v.lease.live() {
		panic(NewReplacedViewError(typeName))
	}
	if v.detached && v.gen != v.arena.generation {
		panic(NewStaleViewError(typeName, v.gen, v.arena.generation))
	}
}

func (v *view) writable(typeName string) (*exclusiveTop, error) {
	if !v.lease.live() {
		return nil, NewReplacedViewError(typeName)
	}
	v.check(typeName)
	if v.top == nil {
		return nil, NewReadOnlyViewError(typeName)
	}
	return v.top, nil
}

// resizable is writable for views that may change the arena length.
// Detached views can't resize since nothing would fix up their siblings.
func (v *view) resizable(typeName string) (*exclusiveTop, error) {
	top, err := v.writable(typeName)
	if err != nil {
		return nil, err
	}
	if v.detached {
		return nil, NewReadOnlyViewError(typeName)
	}
	return top, nil
}

func (v *view) shared() view {
	return view{arena: v.arena, start: v.start, lease: v.lease, detached: true, gen: v.arena.generation}
}

func (v *view) detach() view {
	return view{arena: v.arena, top: v.top, start: v.start, lease: v.lease, detached: true, gen: v.arena.generation}
}

func (v *view) shiftBefore(source, change int) {
	if source < v.start {
		v.start += change
	}
}

// cursorAt returns a cursor over [start, end) of the arena of v.
func (v *view) cursorAt(start, end int) *Cursor {
	c := newCursor(v.arena, v.top, start, end)
	c.lease = v.lease
	c.detached = v.detached
	return c
}

// sharedCursorAt returns a cursor decoding read-only views of [start, end).
func (v *view) sharedCursorAt(start, end int) *Cursor {
	c := newCursor(v.arena, nil, start, end)
	c.lease = v.lease
	c.detached = true
	return c
}

// Owned decodes a value of t from data and returns its owned form.
func Owned[P Ptr, O any](t UnsizedType[P, O], data []byte) (O, error) {
	arena := NewArenaWithConfig(data, ArenaConfig{OriginalLen: len(data)})
	p, err := t.GetPtr(newCursor(arena, nil, 0, arena.Len()))
	if err != nil {
		var zero O
		return zero, err
	}
	return t.OwnedFromPtr(p)
}

// EncodeOwned lays out owned into a new byte slice.
func EncodeOwned[O any](t FromOwned[O], owned O) ([]byte, error) {
	data := make([]byte, t.ByteSize(owned))
	w := data
	n, err := t.FromOwned(owned, &w)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, NewEncodingError(fmt.Errorf("wrote %d bytes, expected %d", n, len(data)))
	}
	return data, nil
}

// EncodeInit lays out the value initialized from arg into a new byte slice.
func EncodeInit(t UnsizedInit, arg any) ([]byte, error) {
	size, err := t.InitBytes(arg)
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	w := data
	if err := t.Init(&w, arg); err != nil {
		return nil, err
	}
	if len(w) != 0 {
		return nil, NewEncodingError(fmt.Errorf("init left %d of %d bytes unwritten", len(w), size))
	}
	return data, nil
}
