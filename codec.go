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
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Codec reads and writes a fixed-size, packed value. All codecs are
// alignment 1 and little-endian.
type Codec[T any] interface {
	TypeName() string
	Size() int
	// Encode writes v to the first Size() bytes of b.
	Encode(b []byte, v T)
	// Decode reads the first Size() bytes of b. Checked types return an
	// error for bit patterns which aren't valid values.
	Decode(b []byte) (T, error)
}

// OrderedCodec is a Codec whose values have a total order, usable as map keys.
type OrderedCodec[T any] interface {
	Codec[T]
	Compare(a, b T) int
}

type orderedCodec[T cmp.Ordered] struct {
	name string
	size int
	put  func([]byte, T)
	get  func([]byte) T
}

var _ OrderedCodec[uint32] = orderedCodec[uint32]{}

func (c orderedCodec[T]) TypeName() string {
	return c.name
}

func (c orderedCodec[T]) Size() int {
	return c.size
}

func (c orderedCodec[T]) Encode(b []byte, v T) {
	c.put(b, v)
}

func (c orderedCodec[T]) Decode(b []byte) (T, error) {
	if len(b) < c.size {
		var zero T
		return zero, NewNotEnoughBytesError(c.name, c.size, len(b))
	}
	return c.get(b), nil
}

func (c orderedCodec[T]) Compare(a, b T) int {
	return cmp.Compare(a, b)
}

var le = binary.LittleEndian

var (
	U8 OrderedCodec[uint8] = orderedCodec[uint8]{
		name: "u8",
		size: 1,
		put:  func(b []byte, v uint8) { b[0] = v },
		get:  func(b []byte) uint8 { return b[0] },
	}
	U16 OrderedCodec[uint16] = orderedCodec[uint16]{"u16", 2, le.PutUint16, le.Uint16}
	U32 OrderedCodec[uint32] = orderedCodec[uint32]{"u32", 4, le.PutUint32, le.Uint32}
	U64 OrderedCodec[uint64] = orderedCodec[uint64]{"u64", 8, le.PutUint64, le.Uint64}

	I8 OrderedCodec[int8] = orderedCodec[int8]{
		name: "i8",
		size: 1,
		put:  func(b []byte, v int8) { b[0] = uint8(v) },
		get:  func(b []byte) int8 { return int8(b[0]) },
	}
	I16 OrderedCodec[int16] = orderedCodec[int16]{
		name: "i16",
		size: 2,
		put:  func(b []byte, v int16) { le.PutUint16(b, uint16(v)) },
		get:  func(b []byte) int16 { return int16(le.Uint16(b)) },
	}
	I32 OrderedCodec[int32] = orderedCodec[int32]{
		name: "i32",
		size: 4,
		put:  func(b []byte, v int32) { le.PutUint32(b, uint32(v)) },
		get:  func(b []byte) int32 { return int32(le.Uint32(b)) },
	}
	I64 OrderedCodec[int64] = orderedCodec[int64]{
		name: "i64",
		size: 8,
		put:  func(b []byte, v int64) { le.PutUint64(b, uint64(v)) },
		get:  func(b []byte) int64 { return int64(le.Uint64(b)) },
	}
)

type boolCodec struct{}

// Bool is a checked one byte boolean: 0 is false, 1 is true, anything else
// fails to decode.
var Bool OrderedCodec[bool] = boolCodec{}

func (boolCodec) TypeName() string { return "bool" }

func (boolCodec) Size() int { return 1 }

func (boolCodec) Encode(b []byte, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

func (boolCodec) Decode(b []byte) (bool, error) {
	if len(b) < 1 {
		return false, NewNotEnoughBytesError("bool", 1, len(b))
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, NewInvalidBitPatternError("bool", b[:1])
	}
}

func (boolCodec) Compare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

const AddressLength = 32

// Address identifies an account.
type Address [AddressLength]byte

var AddressUndefined = Address{}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}

type addressCodec struct{}

var AddressCodec OrderedCodec[Address] = addressCodec{}

func (addressCodec) TypeName() string { return "address" }

func (addressCodec) Size() int { return AddressLength }

func (addressCodec) Encode(b []byte, v Address) {
	copy(b[:AddressLength], v[:])
}

func (addressCodec) Decode(b []byte) (Address, error) {
	var a Address
	if len(b) < AddressLength {
		return a, NewNotEnoughBytesError("address", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

func (addressCodec) Compare(a, b Address) int {
	return a.Compare(b)
}

type unitCodec struct{}

// UnitCodec is the zero-sized codec.
var UnitCodec OrderedCodec[struct{}] = unitCodec{}

func (unitCodec) TypeName() string { return "()" }

func (unitCodec) Size() int { return 0 }

func (unitCodec) Encode([]byte, struct{}) {}

func (unitCodec) Decode([]byte) (struct{}, error) { return struct{}{}, nil }

func (unitCodec) Compare(struct{}, struct{}) int { return 0 }

// FixedCodec is a Codec assembled from functions, for user defined packed
// structs.
type FixedCodec[T any] struct {
	Name       string
	Width      int
	EncodeFunc func(b []byte, v T)
	DecodeFunc func(b []byte) (T, error)
}

var _ Codec[int] = FixedCodec[int]{}

func (c FixedCodec[T]) TypeName() string {
	return c.Name
}

func (c FixedCodec[T]) Size() int {
	return c.Width
}

func (c FixedCodec[T]) Encode(b []byte, v T) {
	c.EncodeFunc(b[:c.Width], v)
}

func (c FixedCodec[T]) Decode(b []byte) (T, error) {
	if len(b) < c.Width {
		var zero T
		return zero, NewNotEnoughBytesError(c.Name, c.Width, len(b))
	}
	return c.DecodeFunc(b[:c.Width])
}

// ListItem is a key value pair stored packed, key first.
type ListItem[K, V any] struct {
	Key   K
	Value V
}

type listItemCodec[K, V any] struct {
	key   Codec[K]
	value Codec[V]
}

// ListItemCodec packs a key and a value back to back.
func ListItemCodec[K, V any](key Codec[K], value Codec[V]) Codec[ListItem[K, V]] {
	return listItemCodec[K, V]{key: key, value: value}
}

func (c listItemCodec[K, V]) TypeName() string {
	return "ListItem<" + c.key.TypeName() + ", " + c.value.TypeName() + ">"
}

func (c listItemCodec[K, V]) Size() int {
	return c.key.Size() + c.value.Size()
}

func (c listItemCodec[K, V]) Encode(b []byte, v ListItem[K, V]) {
	c.key.Encode(b, v.Key)
	c.value.Encode(b[c.key.Size():], v.Value)
}

func (c listItemCodec[K, V]) Decode(b []byte) (ListItem[K, V], error) {
	var item ListItem[K, V]
	if len(b) < c.Size() {
		return item, NewNotEnoughBytesError(c.TypeName(), c.Size(), len(b))
	}
	var err error
	item.Key, err = c.key.Decode(b)
	if err != nil {
		return item, err
	}
	item.Value, err = c.value.Decode(b[c.key.Size():])
	if err != nil {
		return item, err
	}
	return item, nil
}

// LengthCodec encodes the length prefix of lists.
type LengthCodec interface {
	TypeName() string
	Size() int
	// Max is the largest length the prefix can hold.
	Max() uint64
	Read(b []byte) int
	Write(b []byte, n int)
}

type lengthCodec struct {
	name    string
	size    int
	maxLen  uint64
	readLen func([]byte) uint64
	putLen  func([]byte, uint64)
}

var (
	LenU8 LengthCodec = lengthCodec{
		name:    "u8",
		size:    1,
		maxLen:  math.MaxUint8,
		readLen: func(b []byte) uint64 { return uint64(b[0]) },
		putLen:  func(b []byte, n uint64) { b[0] = uint8(n) },
	}
	LenU16 LengthCodec = lengthCodec{
		name:    "u16",
		size:    2,
		maxLen:  math.MaxUint16,
		readLen: func(b []byte) uint64 { return uint64(le.Uint16(b)) },
		putLen:  func(b []byte, n uint64) { le.PutUint16(b, uint16(n)) },
	}
	LenU32 LengthCodec = lengthCodec{
		name:    "u32",
		size:    4,
		maxLen:  math.MaxUint32,
		readLen: func(b []byte) uint64 { return uint64(le.Uint32(b)) },
		putLen:  func(b []byte, n uint64) { le.PutUint32(b, uint32(n)) },
	}
	LenU64 LengthCodec = lengthCodec{
		name:    "u64",
		size:    8,
		maxLen:  math.MaxInt64,
		readLen: le.Uint64,
		putLen:  le.PutUint64,
	}
)

func (c lengthCodec) TypeName() string {
	return c.name
}

func (c lengthCodec) Size() int {
	return c.size
}

func (c lengthCodec) Max() uint64 {
	return c.maxLen
}

func (c lengthCodec) Read(b []byte) int {
	return int(c.readLen(b))
}

func (c lengthCodec) Write(b []byte, n int) {
	c.putLen(b, uint64(n))
}

func checkLength(c LengthCodec, n int) error {
	if n < 0 || uint64(n) > c.Max() {
		return NewMaxLengthError(uint64(n), c.Max())
	}
	return nil
}
