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

// RemainingBytesPtr is a view of every byte from its start to the end of
// the arena.
type RemainingBytesPtr struct {
	view
}

var _ Ptr = &RemainingBytesPtr{}

func (r *RemainingBytesPtr) DataLen() int {
	return r.arena.Len() - r.start
}

func (r *RemainingBytesPtr) ResizeNotification(source, change int) error {
	switch {
	case source < r.start:
		r.start += change
	case source > r.start:
		return NewUnexpectedResizeError(remainingBytesName, source, r.start)
	}
	return nil
}

// Bytes returns the bytes. The slice aliases the arena.
func (r *RemainingBytesPtr) Bytes() []byte {
	r.check(remainingBytesName)
	return r.arena.data[r.start:len(r.arena.data):len(r.arena.data)]
}

func (r *RemainingBytesPtr) Len() int {
	r.check(remainingBytesName)
	return r.DataLen()
}

// SetLen grows with zeroes or truncates to n bytes.
func (r *RemainingBytesPtr) SetLen(n int) error {
	top, err := r.resizable(remainingBytesName)
	if err != nil {
		return err
	}
	if n < 0 {
		return NewInvalidRangeError(0, n, r.Len())
	}
	end := r.arena.Len()
	cur := end - r.start
	switch {
	case n > cur:
		return top.addBytes(r.start, end, n-cur, nil)
	case n < cur:
		return top.removeBytes(r.start, r.start+n, end, nil)
	}
	return nil
}

// SetBytes replaces the contents with b.
func (r *RemainingBytesPtr) SetBytes(b []byte) error {
	if err := r.SetLen(len(b)); err != nil {
		return err
	}
	copy(r.arena.data[r.start:], b)
	return nil
}

// Append adds b after the current contents.
func (r *RemainingBytesPtr) Append(b []byte) error {
	top, err := r.resizable(remainingBytesName)
	if err != nil {
		return err
	}
	end := r.arena.Len()
	return top.addBytes(r.start, end, len(b), func() error {
		copy(r.arena.data[end:], b)
		return nil
	})
}

// AsShared returns a read-only view valid until the next resize.
func (r *RemainingBytesPtr) AsShared() *RemainingBytesPtr {
	return &RemainingBytesPtr{view: r.shared()}
}

const remainingBytesName = "RemainingBytes"

// RemainingBytesType consumes the rest of the arena. It may only be the
// last field of a type.
type RemainingBytesType struct{}

// RemainingBytes is the RemainingBytesType.
var RemainingBytes = &RemainingBytesType{}

var _ Type[*RemainingBytesPtr, []byte] = RemainingBytes

func (*RemainingBytesType) TypeName() string {
	return remainingBytesName
}

func (*RemainingBytesType) ZSTStatus() ZSTStatus {
	return TrailingZST
}

func (*RemainingBytesType) GetPtr(c *Cursor) (*RemainingBytesPtr, error) {
	return &RemainingBytesPtr{view: newView(c, c.AdvanceRest())}, nil
}

func (*RemainingBytesType) OwnedFromPtr(p *RemainingBytesPtr) ([]byte, error) {
	return append([]byte{}, p.Bytes()...), nil
}

func (*RemainingBytesType) ByteSize(owned []byte) int {
	return len(owned)
}

func (*RemainingBytesType) FromOwned(owned []byte, b *[]byte) (int, error) {
	out, err := advance(b, remainingBytesName, len(owned))
	if err != nil {
		return 0, err
	}
	return copy(out, owned), nil
}

// InitBytes accepts DefaultInit (empty) or []byte.
func (*RemainingBytesType) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return 0, nil
	case []byte:
		return len(a), nil
	default:
		return 0, NewUnsupportedInitArgError(remainingBytesName, arg)
	}
}

func (t *RemainingBytesType) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		return nil
	case []byte:
		_, err := t.FromOwned(a, b)
		return err
	default:
		return NewUnsupportedInitArgError(remainingBytesName, arg)
	}
}
