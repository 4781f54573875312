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
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starframe/unsize"
	"github.com/starframe/unsize/test_utils"
)

type (
	listMapPtr   = *unsize.UnsizedMapPtr[uint8, u8ListPtr, []uint8]
	listMapOwned = *unsize.MapOwned[uint8, []uint8]
	listEntry    = unsize.ListItem[uint8, []uint8]
)

var listMap = unsize.UnsizedMapOf[uint8, u8ListPtr, []uint8](unsize.U8, u8List)

func newListMapOwned(entries ...listEntry) listMapOwned {
	owned := listMap.NewOwned()
	for _, e := range entries {
		owned.Insert(e.Key, e.Value)
	}
	return owned
}

func newListMap(t *testing.T, entries ...listEntry) (*test_utils.ByteSet[listMapPtr, listMapOwned], listMapPtr) {
	b, err := test_utils.NewByteSet[listMapPtr, listMapOwned](listMap, newListMapOwned(entries...))
	require.NoError(t, err)
	return b, mut(t, b).Data()
}

func requireListMap(t *testing.T, b *test_utils.ByteSet[listMapPtr, listMapOwned], expected ...listEntry) {
	t.Helper()

	owned, err := b.Owned()
	require.NoError(t, err)
	require.Equal(t, expected, owned.Entries())
	test_utils.RequireSameBytes(t, b, newListMapOwned(expected...))
}

func TestUnsizedMapLayout(t *testing.T) {
	t.Parallel()

	b, m := newListMap(t, listEntry{Key: 2, Value: []uint8{5}}, listEntry{Key: 1, Value: []uint8{}})
	require.Equal(t, []byte{
		9, 0, 0, 0, // unsized size
		2, 0, 0, 0, // length
		0, 0, 0, 0, 1, // offset, key
		4, 0, 0, 0, 2,
		2, 0, 0, 0, // length copy
		0, 0, 0, 0,
		1, 0, 0, 0, 5,
	}, b.Bytes())

	removed, err := m.Remove(1)
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, []byte{
		5, 0, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0, 2,
		1, 0, 0, 0,
		1, 0, 0, 0, 5,
	}, b.Bytes())

	removed, err = m.Remove(1)
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, m.Clear())
	require.Equal(t, make([]byte, 12), b.Bytes())

	data, err := unsize.EncodeInit(listMap, unsize.DefaultInit{})
	require.NoError(t, err)
	require.Equal(t, make([]byte, 12), data)
}

func TestUnsizedMapOrder(t *testing.T) {
	t.Parallel()

	signed := unsize.UnsizedMapOf[int32, u8ListPtr, []uint8](unsize.I32, u8List)
	b, err := test_utils.NewDefaultByteSet[*unsize.UnsizedMapPtr[int32, u8ListPtr, []uint8], *unsize.MapOwned[int32, []uint8]](signed)
	require.NoError(t, err)
	m := mut(t, b).Data()

	for _, k := range []int32{5, -1, 300, -7} {
		added, err := m.Insert(k, []uint8{uint8(k)})
		require.NoError(t, err)
		require.True(t, added)
	}
	require.Equal(t, []int32{-7, -1, 5, 300}, slices.Collect(m.Keys()))

	k, v, err := m.GetByIndex(1)
	require.NoError(t, err)
	require.Equal(t, int32(-1), k)
	values, err := v.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint8{0xff}, values)

	require.True(t, m.ContainsKey(300))
	require.False(t, m.ContainsKey(0))

	i, found, err := m.GetIndex(0)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 2, i)

	var indexErr *unsize.IndexOutOfBoundsError
	_, _, err = m.GetByIndex(4)
	require.ErrorAs(t, err, &indexErr)

	var lens []int
	for v := range m.Values() {
		lens = append(lens, v.Len())
	}
	require.Equal(t, []int{1, 1, 1, 1}, lens)
}

func TestUnsizedMapOperations(t *testing.T) {
	t.Parallel()

	b, m := newListMap(t,
		listEntry{Key: 0, Value: []uint8{0, 1, 2}},
		listEntry{Key: 1, Value: []uint8{10, 11, 12}},
		listEntry{Key: 2, Value: []uint8{20, 21, 22}},
	)

	added, err := m.Insert(1, []uint8{15, 16, 17})
	require.NoError(t, err)
	require.False(t, added)

	one, found, err := m.ValuePtr(1)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, one.Push(18))
	require.NoError(t, one.Insert(0, 14))

	two, found, err := m.ValuePtr(2)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, two.Insert(0, 19))
	require.NoError(t, two.PushAll([]uint8{23, 24}))

	requireListMap(t, b,
		listEntry{Key: 0, Value: []uint8{0, 1, 2}},
		listEntry{Key: 1, Value: []uint8{14, 15, 16, 17, 18}},
		listEntry{Key: 2, Value: []uint8{19, 20, 21, 22, 23, 24}},
	)

	got, found, err := m.Get(2)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 6, got.Len())
	var readOnlyErr *unsize.ReadOnlyViewError
	require.ErrorAs(t, got.Push(1), &readOnlyErr)

	_, found, err = m.Get(3)
	require.NoError(t, err)
	require.False(t, found)
	_, found, err = m.ValuePtr(3)
	require.NoError(t, err)
	require.False(t, found)

	added, err = m.InsertOwned(0, []uint8{})
	require.NoError(t, err)
	require.False(t, added)
	removed, err := m.Remove(1)
	require.NoError(t, err)
	require.True(t, removed)

	requireListMap(t, b,
		listEntry{Key: 0, Value: []uint8{}},
		listEntry{Key: 2, Value: []uint8{19, 20, 21, 22, 23, 24}},
	)
}

func TestUnsizedMapNestedResize(t *testing.T) {
	t.Parallel()

	withSibling := unsize.Combine[listMapPtr, listMapOwned, u32ListPtr, []uint32](listMap, u32List)
	b, err := test_utils.NewByteSetFromInit[*unsize.CombinedPtr[listMapPtr, u32ListPtr], unsize.CombinedOwned[listMapOwned, []uint32]](
		withSibling,
		unsize.InitPair{
			A: newListMapOwned(listEntry{Key: 3, Value: []uint8{30}}, listEntry{Key: 7, Value: []uint8{70}}),
			B: []uint32{42},
		},
	)
	require.NoError(t, err)

	d := mut(t, b).Data()
	m, sibling := d.A, d.B

	three, _, err := m.ValuePtr(3)
	require.NoError(t, err)
	seven, _, err := m.ValuePtr(7)
	require.NoError(t, err)

	require.NoError(t, three.PushAll([]uint8{31, 32}))
	require.NoError(t, seven.Push(71))
	require.NoError(t, sibling.Push(43))
	_, err = three.Remove(0)
	require.NoError(t, err)

	added, err := m.Insert(5, []uint8{50})
	require.NoError(t, err)
	require.True(t, added)

	var staleErr *unsize.StaleViewError
	require.ErrorAs(t, seven.Push(72), &staleErr)
	require.NoError(t, sibling.Push(44))

	seven, _, err = m.ValuePtr(7)
	require.NoError(t, err)
	require.NoError(t, seven.Push(72))

	added, err = m.Insert(3, []uint8{})
	require.NoError(t, err)
	require.False(t, added)

	owned, err := b.Owned()
	require.NoError(t, err)
	require.Equal(t, []listEntry{
		{Key: 3, Value: []uint8{}},
		{Key: 5, Value: []uint8{50}},
		{Key: 7, Value: []uint8{70, 71, 72}},
	}, owned.A.Entries())
	require.Equal(t, []uint32{42, 43, 44}, owned.B)
}

func TestUnsizedMapErrors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported init", func(t *testing.T) {
		t.Parallel()

		var initErr *unsize.UnsupportedInitArgError
		_, err := unsize.EncodeInit(listMap, []listEntry{{Key: 1}})
		require.ErrorAs(t, err, &initErr)
	})

	t.Run("read-only", func(t *testing.T) {
		t.Parallel()

		_, m := newListMap(t, listEntry{Key: 1, Value: []uint8{1}})
		shared := m.AsShared()
		var readOnlyErr *unsize.ReadOnlyViewError
		_, err := shared.Insert(2, unsize.DefaultInit{})
		require.ErrorAs(t, err, &readOnlyErr)
		_, err = shared.Remove(1)
		require.ErrorAs(t, err, &readOnlyErr)
	})

	t.Run("zero-sized value", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() {
			unsize.UnsizedMapOf[uint8, *unsize.RemainingBytesPtr, []byte](unsize.U8, unsize.RemainingBytes)
		})
	})
}
