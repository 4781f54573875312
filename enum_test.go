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
package unsize_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starframe/unsize"
	"github.com/starframe/unsize/test_utils"
)

type (
	u8ListPtr  = *unsize.ListPtr[uint8]
	u32ListPtr = *unsize.ListPtr[uint32]
	enumPtr    = *unsize.EnumPtr[uint8]
	enumOwned  = unsize.EnumOwned[uint8]
)

var (
	variantA = unsize.NewVariant[uint8, *unsize.UnitPtr, struct{}]("A", 0, unsize.Unit)
	variantB = unsize.NewVariant[uint8, u8ListPtr, []uint8]("B", 1, u8List)
	abEnum   = unsize.NewEnum[uint8]("AB", unsize.U8, 0, variantA, variantB)
)

func TestEnumSetVariant(t *testing.T) {
	t.Parallel()

	b, err := test_utils.NewDefaultByteSet[enumPtr, enumOwned](abEnum)
	require.NoError(t, err)
	require.Equal(t, []byte{0}, b.Bytes())

	e := mut(t, b).Data()
	require.Equal(t, uint8(0), e.Discriminant())
	_, ok := variantB.Get(e)
	require.False(t, ok)

	list, err := variantB.Set(e, unsize.DefaultInit{})
	require.NoError(t, err)
	require.Equal(t, uint8(1), e.Discriminant())
	require.Equal(t, "B", e.Variant().Name())

	require.NoError(t, list.Push(0))
	list, ok = variantB.Get(e)
	require.True(t, ok)
	values, err := list.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint8{0}, values)
	test_utils.RequireOwned(t, b, enumOwned{Discriminant: 1, Value: []uint8{0}})

	_, err = variantA.Set(e, struct{}{})
	require.NoError(t, err)
	require.Equal(t, []byte{0}, b.Bytes())

	list, err = variantB.Set(e, unsize.DefaultInit{})
	require.NoError(t, err)
	require.True(t, list.IsEmpty())
	require.Equal(t, []byte{1, 0, 0, 0, 0}, b.Bytes())

	list, err = variantB.SetOwned(e, []uint8{4, 5})
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())

	p, err := e.SetFromInit(0, unsize.DefaultInit{})
	require.NoError(t, err)
	require.IsType(t, &unsize.UnitPtr{}, p)
	require.Equal(t, []byte{0}, b.Bytes())
}

func TestEnumInvalidDiscriminant(t *testing.T) {
	t.Parallel()

	var discErr *unsize.InvalidDiscriminantError

	t.Run("decode", func(t *testing.T) {
		t.Parallel()

		b := test_utils.NewByteSetFromBytes[enumPtr, enumOwned](abEnum, []byte{7})
		_, err := b.Mut()
		require.ErrorAs(t, err, &discErr)
		require.True(t, unsize.IsFatalError(err))
	})

	t.Run("set", func(t *testing.T) {
		t.Parallel()

		b, err := test_utils.NewDefaultByteSet[enumPtr, enumOwned](abEnum)
		require.NoError(t, err)
		e := mut(t, b).Data()

		_, err = e.SetFromInit(9, unsize.DefaultInit{})
		require.ErrorAs(t, err, &discErr)

		foreign := unsize.NewVariant[uint8, *unsize.UnitPtr, struct{}]("C", 2, unsize.Unit)
		_, err = foreign.Set(e, unsize.DefaultInit{})
		require.ErrorAs(t, err, &discErr)
		require.Equal(t, []byte{0}, b.Bytes())
	})

	t.Run("owned", func(t *testing.T) {
		t.Parallel()

		_, err := unsize.EncodeOwned[enumOwned](abEnum, enumOwned{Discriminant: 3})
		require.ErrorAs(t, err, &discErr)

		_, err = unsize.EncodeOwned[enumOwned](abEnum, enumOwned{Discriminant: 1, Value: "x"})
		var ownedErr *unsize.OwnedTypeError
		require.ErrorAs(t, err, &ownedErr)
	})

	t.Run("init", func(t *testing.T) {
		t.Parallel()

		data, err := unsize.EncodeInit(abEnum, unsize.VariantInit[uint8]{Discriminant: 1, Arg: []uint8{9}})
		require.NoError(t, err)
		require.Equal(t, []byte{1, 1, 0, 0, 0, 9}, data)

		_, err = unsize.EncodeInit(abEnum, unsize.VariantInit[uint8]{Discriminant: 2})
		require.ErrorAs(t, err, &discErr)
	})
}

func TestEnumZSTStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, unsize.NoZST, abEnum.ZSTStatus())

	trailing := unsize.NewEnum[uint8](
		"Trailing",
		unsize.U8,
		0,
		variantA,
		unsize.NewVariant[uint8, *unsize.RemainingBytesPtr, []byte]("Rest", 1, unsize.RemainingBytes),
	)
	require.Equal(t, unsize.TrailingZST, trailing.ZSTStatus())

	require.PanicsWithValue(t, unsize.NewZSTPositionError("(Trailing, List<u32, u32>)"), func() {
		unsize.Combine[enumPtr, enumOwned, u32ListPtr, []uint32](trailing, u32List)
	})
	require.NotPanics(t, func() {
		unsize.Combine[u32ListPtr, []uint32, enumPtr, enumOwned](u32List, trailing)
	})

	require.Panics(t, func() {
		unsize.NewEnum[uint8]("Duplicate", unsize.U8, 0, variantA, variantA)
	})
	require.Panics(t, func() {
		unsize.NewEnum[uint8]("NoDefault", unsize.U8, 5, variantA)
	})
}

// TestEnumSibling resizes an enum followed by a list, and checks the list
// view follows it.
func TestEnumSibling(t *testing.T) {
	t.Parallel()

	withSibling := unsize.Combine[enumPtr, enumOwned, u32ListPtr, []uint32](abEnum, u32List)

	b, err := test_utils.NewByteSetFromInit[*unsize.CombinedPtr[enumPtr, u32ListPtr], unsize.CombinedOwned[enumOwned, []uint32]](
		withSibling,
		unsize.InitPair{B: []uint32{42}},
	)
	require.NoError(t, err)

	d := mut(t, b).Data()
	sibling := d.B

	list, err := variantB.Set(d.A, unsize.DefaultInit{})
	require.NoError(t, err)
	require.NoError(t, list.PushAll([]uint8{1, 2, 3}))

	v, ok := sibling.Get(0)
	require.True(t, ok)
	require.Equal(t, uint32(42), v)
	require.NoError(t, sibling.Push(43))

	_, err = variantA.Set(d.A, unsize.DefaultInit{})
	require.NoError(t, err)
	values, err := sibling.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint32{42, 43}, values)

	test_utils.RequireOwned(t, b, unsize.CombinedOwned[enumOwned, []uint32]{
		A: enumOwned{Discriminant: 0, Value: struct{}{}},
		B: []uint32{42, 43},
	})
}

type (
	siblingPtr   = *unsize.CombinedPtr[enumPtr, u32ListPtr]
	siblingOwned = unsize.CombinedOwned[enumOwned, []uint32]
)

// newEnumWithSibling lays out an enum of e in its default variant, followed
// by a list holding 42.
func newEnumWithSibling(t *testing.T, e *unsize.EnumType[uint8]) (*test_utils.ByteSet[siblingPtr, siblingOwned], siblingPtr) {
	t.Helper()

	withSibling := unsize.Combine[enumPtr, enumOwned, u32ListPtr, []uint32](e, u32List)
	b, err := test_utils.NewByteSetFromInit[siblingPtr, siblingOwned](withSibling, unsize.InitPair{B: []uint32{42}})
	require.NoError(t, err)
	return b, mut(t, b).Data()
}

// TestEnumReplacedPayload checks views of a payload can't be used once the
// enum switched to another payload.
func TestEnumReplacedPayload(t *testing.T) {
	t.Parallel()

	var staleErr *unsize.StaleViewError

	t.Run("resized", func(t *testing.T) {
		t.Parallel()

		b, d := newEnumWithSibling(t, abEnum)

		old, err := variantB.Set(d.A, unsize.DefaultInit{})
		require.NoError(t, err)
		require.NoError(t, old.Push(1))
		elem, ok := old.ElemPtr(0)
		require.True(t, ok)

		_, err = variantA.Set(d.A, unsize.DefaultInit{})
		require.NoError(t, err)
		before := slices.Clone(b.Bytes())
		require.Equal(t, []byte{0, 1, 0, 0, 0, 42, 0, 0, 0}, before)

		err = old.Push(7)
		require.ErrorAs(t, err, &staleErr)
		require.True(t, unsize.IsFatalError(err))
		require.ErrorAs(t, elem.Set(5), &staleErr)
		require.Panics(t, func() {
			old.Len()
		})
		require.Equal(t, before, b.Bytes())

		values, err := d.B.ToSlice()
		require.NoError(t, err)
		require.Equal(t, []uint32{42}, values)
	})

	t.Run("same size", func(t *testing.T) {
		t.Parallel()

		b, d := newEnumWithSibling(t, abEnum)

		old, err := variantB.SetOwned(d.A, []uint8{1, 2})
		require.NoError(t, err)
		cur, err := variantB.SetOwned(d.A, []uint8{3, 4})
		require.NoError(t, err)

		require.ErrorAs(t, old.Set(0, 9), &staleErr)
		require.NoError(t, cur.Set(0, 9))
		test_utils.RequireOwned(t, b, siblingOwned{
			A: enumOwned{Discriminant: 1, Value: []uint8{9, 4}},
			B: []uint32{42},
		})
	})

	t.Run("closed wrapper", func(t *testing.T) {
		t.Parallel()

		b, err := test_utils.NewDefaultByteSet[enumPtr, enumOwned](abEnum)
		require.NoError(t, err)
		w, err := b.Mut()
		require.NoError(t, err)
		e := w.Data()
		w.Close()

		_, err = variantB.Set(e, unsize.DefaultInit{})
		require.ErrorAs(t, err, &staleErr)
		require.Equal(t, []byte{0}, b.Bytes())
	})
}

var errFailingInit = errors.New("init failed")

// failingList sizes its init like a list of u8 but fails to write it.
type failingList struct {
	*unsize.ListType[uint8]
}

func (failingList) Init(*[]byte, any) error {
	return errFailingInit
}

// TestEnumFailedSwitch checks a payload init failing after the resize leaves
// the enum and its sibling as they were.
func TestEnumFailedSwitch(t *testing.T) {
	t.Parallel()

	variantC := unsize.NewVariant[uint8, u8ListPtr, []uint8]("C", 2, failingList{u8List})
	abcEnum := unsize.NewEnum[uint8]("ABC", unsize.U8, 0, variantA, variantB, variantC)

	t.Run("grow", func(t *testing.T) {
		t.Parallel()

		b, d := newEnumWithSibling(t, abcEnum)
		before := slices.Clone(b.Bytes())

		_, err := variantC.Set(d.A, unsize.DefaultInit{})
		require.ErrorIs(t, err, errFailingInit)
		require.Equal(t, before, b.Bytes())
		require.Equal(t, uint8(0), d.A.Discriminant())

		require.NoError(t, d.B.Push(43))
		test_utils.RequireOwned(t, b, siblingOwned{
			A: enumOwned{Discriminant: 0, Value: struct{}{}},
			B: []uint32{42, 43},
		})
	})

	t.Run("shrink", func(t *testing.T) {
		t.Parallel()

		b, d := newEnumWithSibling(t, abcEnum)
		list, err := variantB.SetOwned(d.A, []uint8{1, 2, 3})
		require.NoError(t, err)
		before := slices.Clone(b.Bytes())

		_, err = variantC.Set(d.A, unsize.DefaultInit{})
		require.ErrorIs(t, err, errFailingInit)
		require.Equal(t, before, b.Bytes())
		require.Equal(t, uint8(1), d.A.Discriminant())

		require.NoError(t, list.Push(4))
		require.NoError(t, d.B.Push(43))
		test_utils.RequireOwned(t, b, siblingOwned{
			A: enumOwned{Discriminant: 1, Value: []uint8{1, 2, 3, 4}},
			B: []uint32{42, 43},
		})
	})
}
