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
	"cmp"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starframe/unsize"
	"github.com/starframe/unsize/test_utils"
)

type item = unsize.ListItem[uint8, uint8]

var u8Map = unsize.MapOf[uint8, uint8](unsize.U8, unsize.U8, unsize.LenU32)

func TestMapInsertOrder(t *testing.T) {
	t.Parallel()

	b, err := test_utils.NewDefaultByteSet[*unsize.MapPtr[uint8, uint8], *unsize.MapOwned[uint8, uint8]](u8Map)
	require.NoError(t, err)
	m := mut(t, b).Data()

	for _, e := range []item{{Key: 3, Value: 30}, {Key: 1, Value: 10}, {Key: 2, Value: 20}} {
		_, replaced, err := m.Insert(e.Key, e.Value)
		require.NoError(t, err)
		require.False(t, replaced)
	}
	test_utils.RequireMapEntries(t, m, []item{{Key: 1, Value: 10}, {Key: 2, Value: 20}, {Key: 3, Value: 30}})

	old, replaced, err := m.Insert(2, 99)
	require.NoError(t, err)
	require.True(t, replaced)
	require.Equal(t, uint8(20), old)
	test_utils.RequireMapEntries(t, m, []item{{Key: 1, Value: 10}, {Key: 2, Value: 99}, {Key: 3, Value: 30}})

	require.Equal(t, []byte{3, 0, 0, 0, 1, 10, 2, 99, 3, 30}, b.Bytes())
}

func TestMapOperations(t *testing.T) {
	t.Parallel()

	newMap := func(t *testing.T) *unsize.MapPtr[uint8, uint8] {
		b, err := test_utils.NewByteSetFromInit[*unsize.MapPtr[uint8, uint8], *unsize.MapOwned[uint8, uint8]](
			u8Map,
			[]item{{Key: 5, Value: 1}, {Key: 1, Value: 2}, {Key: 5, Value: 3}},
		)
		require.NoError(t, err)
		return mut(t, b).Data()
	}

	t.Run("init sorts and keeps the last duplicate", func(t *testing.T) {
		t.Parallel()

		m := newMap(t)
		test_utils.RequireMapEntries(t, m, []item{{Key: 1, Value: 2}, {Key: 5, Value: 3}})
	})

	t.Run("get", func(t *testing.T) {
		t.Parallel()

		m := newMap(t)
		v, ok := m.Get(5)
		require.True(t, ok)
		require.Equal(t, uint8(3), v)

		_, ok = m.Get(4)
		require.False(t, ok)
		require.True(t, m.ContainsKey(1))

		i, found, err := m.GetIndex(4)
		require.NoError(t, err)
		require.False(t, found)
		require.Equal(t, 1, i)

		k, v, ok := m.GetByIndex(1)
		require.True(t, ok)
		require.Equal(t, uint8(5), k)
		require.Equal(t, uint8(3), v)
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()

		m := newMap(t)
		v, found, err := m.Remove(1)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint8(2), v)

		_, found, err = m.Remove(1)
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, m.Clear())
		require.True(t, m.IsEmpty())
	})

	t.Run("value ptr", func(t *testing.T) {
		t.Parallel()

		m := newMap(t)
		p, ok := m.ValuePtr(5)
		require.True(t, ok)
		require.NoError(t, p.Set(50))

		for k, p := range m.ValuePtrs() {
			if k == 1 {
				require.NoError(t, p.Set(p.Get()+1))
			}
		}
		require.Equal(t, []uint8{1, 5}, slices.Collect(m.Keys()))
		require.Equal(t, []uint8{3, 50}, slices.Collect(m.Values()))
	})

	t.Run("read only", func(t *testing.T) {
		t.Parallel()

		m := newMap(t).AsShared()
		_, _, err := m.Insert(7, 7)
		var readOnlyErr *unsize.ReadOnlyViewError
		require.ErrorAs(t, err, &readOnlyErr)
	})
}

func TestMapOwned(t *testing.T) {
	t.Parallel()

	owned := u8Map.NewOwned()
	_, replaced := owned.Insert(9, 1)
	require.False(t, replaced)
	owned.Insert(4, 2)
	old, replaced := owned.Insert(9, 3)
	require.True(t, replaced)
	require.Equal(t, uint8(1), old)

	b, err := test_utils.NewByteSet[*unsize.MapPtr[uint8, uint8], *unsize.MapOwned[uint8, uint8]](u8Map, owned)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 0, 0, 0, 4, 2, 9, 3}, b.Bytes())

	decoded, err := b.Owned()
	require.NoError(t, err)
	require.Equal(t, owned.Entries(), decoded.Entries())

	v, ok := decoded.Get(4)
	require.True(t, ok)
	require.Equal(t, uint8(2), v)

	_, found := decoded.Remove(4)
	require.True(t, found)
	require.Equal(t, 1, decoded.Len())
	require.False(t, decoded.ContainsKey(4))
}

func TestMapRandomOperations(t *testing.T) {
	t.Parallel()

	r := newRand(t)

	mapType := unsize.MapOf[uint16, uint32](unsize.U16, unsize.U32, unsize.LenU16)
	b, err := test_utils.NewDefaultByteSet[*unsize.MapPtr[uint16, uint32], *unsize.MapOwned[uint16, uint32]](mapType)
	require.NoError(t, err)
	m := mut(t, b).Data()

	expected := make(map[uint16]uint32)
	for range 3000 {
		key := uint16(r.Intn(200))
		if r.Intn(3) == 0 {
			v, found, err := m.Remove(key)
			require.NoError(t, err)
			ev, ok := expected[key]
			require.Equal(t, ok, found)
			require.Equal(t, ev, v)
			delete(expected, key)
		} else {
			value := r.Uint32()
			before := m.Len()
			old, replaced, err := m.Insert(key, value)
			require.NoError(t, err)
			ev, ok := expected[key]
			require.Equal(t, ok, replaced)
			require.Equal(t, ev, old)
			if replaced {
				require.Equal(t, before, m.Len())
			} else {
				require.Equal(t, before+1, m.Len())
			}
			expected[key] = value
		}

		keys := slices.Collect(m.Keys())
		require.True(t, slices.IsSortedFunc(keys, cmp.Compare[uint16]))
		require.Len(t, slices.Compact(slices.Clone(keys)), len(keys))
	}

	require.Equal(t, slices.Sorted(maps.Keys(expected)), slices.Collect(m.Keys()))
	for k, v := range m.All() {
		require.Equal(t, expected[k], v)
	}
}
