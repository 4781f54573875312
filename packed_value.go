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

// PackedValue is a view of one packed, fixed-size value.
type PackedValue[T any] struct {
	view
	codec Codec[T]
}

var _ Ptr = &PackedValue[uint8]{}

func newPackedValue[T any](v view, codec Codec[T]) *PackedValue[T] {
	return &PackedValue[T]{view: v, codec: codec}
}

func (p *PackedValue[T]) DataLen() int {
	return p.codec.Size()
}

func (p *PackedValue[T]) ResizeNotification(source, change int) error {
	if source > p.start && source < p.start+p.codec.Size() {
		return NewUnexpectedResizeError(p.codec.TypeName(), source, p.start)
	}
	p.shiftBefore(source, change)
	return nil
}

// Bytes returns the encoded value.
func (p *PackedValue[T]) Bytes() []byte {
	p.check(p.codec.TypeName())
	size := p.codec.Size()
	return p.arena.data[p.start : p.start+size : p.start+size]
}

// TryGet decodes the value.
func (p *PackedValue[T]) TryGet() (T, error) {
	return p.codec.Decode(p.Bytes())
}

// Get decodes the value. It panics if the bytes aren't a valid T, which
// only happens for checked codecs over corrupted data.
func (p *PackedValue[T]) Get() T {
	v, err := p.TryGet()
	if err != nil {
		panic(err)
	}
	return v
}

// Set overwrites the value in place.
func (p *PackedValue[T]) Set(v T) error {
	if _, err := p.writable(p.codec.TypeName()); err != nil {
		return err
	}
	p.codec.Encode(p.arena.data[p.start:], v)
	return nil
}

// AsShared returns a read-only view valid until the next resize.
func (p *PackedValue[T]) AsShared() *PackedValue[T] {
	return newPackedValue(p.shared(), p.codec)
}

// SizedType places a fixed-size value among unsized fields.
type SizedType[T any] struct {
	codec Codec[T]
}

var _ Type[*PackedValue[uint8], uint8] = &SizedType[uint8]{}

// Sized returns the unsized type of a packed value.
func Sized[T any](codec Codec[T]) *SizedType[T] {
	return &SizedType[T]{codec: codec}
}

func (s *SizedType[T]) TypeName() string {
	return s.codec.TypeName()
}

func (s *SizedType[T]) ZSTStatus() ZSTStatus {
	if s.codec.Size() == 0 {
		return TrailingZST
	}
	return NoZST
}

func (s *SizedType[T]) GetPtr(c *Cursor) (*PackedValue[T], error) {
	start, err := c.Advance(s.codec.TypeName(), s.codec.Size())
	if err != nil {
		return nil, err
	}
	return newPackedValue(newView(c, start), s.codec), nil
}

func (s *SizedType[T]) OwnedFromPtr(p *PackedValue[T]) (T, error) {
	return p.TryGet()
}

func (s *SizedType[T]) ByteSize(T) int {
	return s.codec.Size()
}

func (s *SizedType[T]) FromOwned(owned T, b *[]byte) (int, error) {
	out, err := advance(b, s.codec.TypeName(), s.codec.Size())
	if err != nil {
		return 0, err
	}
	s.codec.Encode(out, owned)
	return len(out), nil
}

// InitBytes accepts DefaultInit (zeroed) or a T.
func (s *SizedType[T]) InitBytes(arg any) (int, error) {
	switch arg.(type) {
	case DefaultInit, T:
		return s.codec.Size(), nil
	default:
		return 0, NewUnsupportedInitArgError(s.TypeName(), arg)
	}
}

func (s *SizedType[T]) Init(b *[]byte, arg any) error {
	out, err := advance(b, s.codec.TypeName(), s.codec.Size())
	if err != nil {
		return err
	}
	switch a := arg.(type) {
	case DefaultInit:
		clear(out)
	case T:
		s.codec.Encode(out, a)
	default:
		return NewUnsupportedInitArgError(s.TypeName(), arg)
	}
	return nil
}
