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

// Cursor walks an arena window while views are decoded from it. Each
// decoded view consumes a prefix of the remaining window.
type Cursor struct {
	arena  *Arena
	top    *exclusiveTop
	offset int
	end    int
	lease  *lease
	// detached cursors decode read-only views which are only valid until
	// the next resize.
	detached bool
}

func newCursor(arena *Arena, top *exclusiveTop, offset, end int) *Cursor {
	return &Cursor{arena: arena, top: top, offset: offset, end: end}
}

// Offset returns the arena offset of the next unread byte.
func (c *Cursor) Offset() int {
	return c.offset
}

// Remaining returns the number of unread bytes in the window.
func (c *Cursor) Remaining() int {
	return c.end - c.offset
}

// Advance consumes n bytes and returns the offset they start at.
func (c *Cursor) Advance(typeName string, n int) (int, error) {
	if n < 0 || n > c.Remaining() {
		return 0, NewNotEnoughBytesError(typeName, n, c.Remaining())
	}
	start := c.offset
	c.offset += n
	return start, nil
}

// Peek returns the next n unread bytes without consuming them.
func (c *Cursor) Peek(typeName string, n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, NewNotEnoughBytesError(typeName, n, c.Remaining())
	}
	return c.arena.data[c.offset : c.offset+n], nil
}

// AdvanceRest consumes the rest of the window.
func (c *Cursor) AdvanceRest() int {
	start := c.offset
	c.offset = c.end
	return start
}

// sub returns a cursor over the next n bytes and consumes them from c.
func (c *Cursor) sub(typeName string, n int) (*Cursor, error) {
	start, err := c.Advance(typeName, n)
	if err != nil {
		return nil, err
	}
	sub := newCursor(c.arena, c.top, start, start+n)
	sub.lease = c.lease
	sub.detached = c.detached
	return sub, nil
}

// pushLease puts the views decoded next from c under a new child lease, so
// they can be revoked together.
func (c *Cursor) pushLease() *lease {
	if c.top == nil {
		return nil
	}
	c.lease = newLease(c.lease)
	return c.lease
}

func (c *Cursor) popLease(l *lease) {
	if l != nil {
		c.lease = l.parent
	}
}

// advance splits n bytes off the front of a write buffer.
func advance(b *[]byte, typeName string, n int) ([]byte, error) {
	if n < 0 || n > len(*b) {
		return nil, NewNotEnoughBytesError(typeName, n, len(*b))
	}
	out := (*b)[:n:n]
	*b = (*b)[n:]
	return out, nil
}
