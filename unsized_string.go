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

import "unicode/utf8"

// UnsizedStringPtr is a view of a UTF-8 string stored as a List<u8, u32>.
type UnsizedStringPtr struct {
	list *ListPtr[uint8]
}

var _ Ptr = &UnsizedStringPtr{}

func (s *UnsizedStringPtr) Start() int {
	return s.list.Start()
}

func (s *UnsizedStringPtr) DataLen() int {
	return s.list.DataLen()
}

func (s *UnsizedStringPtr) ResizeNotification(source, change int) error {
	return s.list.ResizeNotification(source, change)
}

// Len returns the length in bytes.
func (s *UnsizedStringPtr) Len() int {
	return s.list.Len()
}

func (s *UnsizedStringPtr) IsEmpty() bool {
	return s.list.IsEmpty()
}

func (s *UnsizedStringPtr) bytes() []byte {
	n := s.list.Len()
	off := s.list.elemOffset(0)
	return s.list.arena.data[off : off+n]
}

// String returns the contents. Invalid UTF-8 is returned as is.
func (s *UnsizedStringPtr) String() string {
	return string(s.bytes())
}

// Str returns the contents, checking they are UTF-8.
func (s *UnsizedStringPtr) Str() (string, error) {
	b := s.bytes()
	if !utf8.Valid(b) {
		return "", NewInvalidUTF8Error(s.list.elemOffset(0))
	}
	return string(b), nil
}

// Set replaces the contents, resizing only by the length difference.
func (s *UnsizedStringPtr) Set(str string) error {
	top, err := s.list.resizable(unsizedStringName)
	if err != nil {
		return err
	}
	if err := checkLength(LenU32, len(str)); err != nil {
		return err
	}
	cur := s.list.readLen()
	write := func() error {
		copy(s.list.arena.data[s.list.elemOffset(0):], str)
		s.list.writeLen(len(str))
		return nil
	}
	switch {
	case len(str) > cur:
		return s.list.grow(top, s.list.elemOffset(cur), len(str)-cur, write)
	case len(str) < cur:
		return s.list.shrink(top, s.list.elemOffset(len(str)), s.list.elemOffset(cur), write)
	default:
		return write()
	}
}

// Append adds str after the current contents.
func (s *UnsizedStringPtr) Append(str string) error {
	return s.list.PushAll([]byte(str))
}

// AsShared returns a read-only view valid until the next resize.
func (s *UnsizedStringPtr) AsShared() *UnsizedStringPtr {
	return &UnsizedStringPtr{list: s.list.AsShared()}
}

const unsizedStringName = "UnsizedString"

// UnsizedStringType is the unsized type of strings.
type UnsizedStringType struct {
	list *ListType[uint8]
}

// UnsizedString is the UnsizedStringType.
var UnsizedString = &UnsizedStringType{list: ListOf(Codec[uint8](U8), LenU32)}

var _ Type[*UnsizedStringPtr, string] = UnsizedString

func (*UnsizedStringType) TypeName() string {
	return unsizedStringName
}

func (*UnsizedStringType) ZSTStatus() ZSTStatus {
	return NoZST
}

func (t *UnsizedStringType) GetPtr(c *Cursor) (*UnsizedStringPtr, error) {
	list, err := t.list.GetPtr(c)
	if err != nil {
		return nil, err
	}
	return &UnsizedStringPtr{list: list}, nil
}

func (*UnsizedStringType) OwnedFromPtr(p *UnsizedStringPtr) (string, error) {
	return p.Str()
}

func (t *UnsizedStringType) ByteSize(owned string) int {
	return t.list.length.Size() + len(owned)
}

func (t *UnsizedStringType) FromOwned(owned string, b *[]byte) (int, error) {
	if err := checkLength(t.list.length, len(owned)); err != nil {
		return 0, err
	}
	out, err := advance(b, unsizedStringName, t.ByteSize(owned))
	if err != nil {
		return 0, err
	}
	t.list.length.Write(out, len(owned))
	copy(out[t.list.length.Size():], owned)
	return len(out), nil
}

// InitBytes accepts DefaultInit (empty) or a string.
func (t *UnsizedStringType) InitBytes(arg any) (int, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return t.list.length.Size(), nil
	case string:
		return t.ByteSize(a), nil
	default:
		return 0, NewUnsupportedInitArgError(unsizedStringName, arg)
	}
}

func (t *UnsizedStringType) Init(b *[]byte, arg any) error {
	switch a := arg.(type) {
	case DefaultInit:
		return t.list.Init(b, a)
	case string:
		_, err := t.FromOwned(a, b)
		return err
	default:
		return NewUnsupportedInitArgError(unsizedStringName, arg)
	}
}
