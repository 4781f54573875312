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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starframe/unsize"
	"github.com/starframe/unsize/test_utils"
)

type (
	dualKeyEntry = unsize.DualKeyEntry[uint8, uint8, uint16]
	dualKeyMap   = unsize.DualKeyMapPtr[uint8, uint8, uint16]
)

var dualKeyMapType = unsize.DualKeyMapOf[uint8, uint8, uint16](unsize.U8, unsize.U8, unsize.U16, unsize.LenU32)

func newDualKeyMap(t *testing.T) (*test_utils.ByteSet[*dualKeyMap, []dualKeyEntry], *dualKeyMap) {
	b, err := test_utils.NewDefaultByteSet[*dualKeyMap, []dualKeyEntry](dualKeyMapType)
	require.NoError(t, err)
	return b, mut(t, b).Data()
}

// requireConsistent checks both indices agree on the position of every entry.
func requireConsistent(t *testing.T, m *dualKeyMap) {
	t.Helper()

	n := 0
	for e := range m.All() {
		k2, v, ok := m.GetByLeft(e.Key1)
		require.True(t, ok)
		require.Equal(t, e.Key2, k2)
		require.Equal(t, e.Value, v)

		k1, v, ok := m.GetByRight(e.Key2)
		require.True(t, ok)
		require.Equal(t, e.Key1, k1)
		require.Equal(t, e.Value, v)
		n++
	}
	require.Equal(t, n, m.Len())
}

func TestDualKeyMapMismatch(t *testing.T) {
	t.Parallel()

	b, m := newDualKeyMap(t)

	_, replaced, err := m.Insert(1, 'a', 100)
	require.NoError(t, err)
	require.False(t, replaced)

	before := b.Len()
	_, _, err = m.Insert(1, 'b', 200)
	var mismatchErr *unsize.DualKeyMismatchError
	require.ErrorAs(t, err, &mismatchErr)
	require.False(t, unsize.IsFatalError(err))
	require.Equal(t, before, b.Len())

	k2, v, ok := m.GetByLeft(1)
	require.True(t, ok)
	require.Equal(t, uint8('a'), k2)
	require.Equal(t, uint16(100), v)
	require.False(t, m.ContainsRight('b'))

	_, replaced, err = m.Insert(2, 'b', 200)
	require.NoError(t, err)
	require.False(t, replaced)

	// Both keys present, on different entries.
	_, _, err = m.Insert(1, 'b', 300)
	require.ErrorAs(t, err, &mismatchErr)
	requireConsistent(t, m)
}

func TestDualKeyMapOperations(t *testing.T) {
	t.Parallel()

	t.Run("replace", func(t *testing.T) {
		t.Parallel()

		_, m := newDualKeyMap(t)
		_, _, err := m.Insert(1, 10, 100)
		require.NoError(t, err)

		old, replaced, err := m.Insert(1, 10, 111)
		require.NoError(t, err)
		require.True(t, replaced)
		require.Equal(t, uint16(100), old)
		require.Equal(t, 1, m.Len())
	})

	t.Run("swap remove", func(t *testing.T) {
		t.Parallel()

		b, m := newDualKeyMap(t)
		for i := range uint8(4) {
			_, _, err := m.Insert(i, 10+i, uint16(i)*100)
			require.NoError(t, err)
		}

		k2, v, found, err := m.RemoveByLeft(1)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint8(11), k2)
		require.Equal(t, uint16(100), v)
		requireConsistent(t, m)

		k1, v, found, err := m.RemoveByRight(13)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint8(3), k1)
		require.Equal(t, uint16(300), v)
		requireConsistent(t, m)

		_, _, found, err = m.RemoveByLeft(1)
		require.NoError(t, err)
		require.False(t, found)

		test_utils.RequireOwned(t, b, []dualKeyEntry{
			{Key1: 0, Key2: 10, Value: 0},
			{Key1: 2, Key2: 12, Value: 200},
		})
	})

	t.Run("value ptr", func(t *testing.T) {
		t.Parallel()

		_, m := newDualKeyMap(t)
		_, _, err := m.Insert(5, 6, 7)
		require.NoError(t, err)

		p, ok := m.ValuePtrByRight(6)
		require.True(t, ok)
		require.NoError(t, p.Set(70))

		p, ok = m.ValuePtrByLeft(5)
		require.True(t, ok)
		require.Equal(t, uint16(70), p.Get())

		_, ok = m.ValuePtrByLeft(6)
		require.False(t, ok)
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		b, m := newDualKeyMap(t)
		_, _, err := m.Insert(5, 6, 7)
		require.NoError(t, err)
		require.NoError(t, m.Clear())
		require.True(t, m.IsEmpty())
		require.False(t, m.ContainsLeft(5))
		require.Equal(t, 12, b.Len())
	})

	t.Run("init rejects duplicate keys", func(t *testing.T) {
		t.Parallel()

		_, err := unsize.EncodeInit(dualKeyMapType, []dualKeyEntry{
			{Key1: 1, Key2: 2, Value: 3},
			{Key1: 1, Key2: 4, Value: 5},
		})
		require.Error(t, err)
	})
}

func TestDualKeyMapRollback(t *testing.T) {
	t.Parallel()

	// An insert grows the entry list by 4 bytes, then each index by 5.
	for name, maxGrowth := range map[string]int{
		"left index full":  6,
		"right index full": 12,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := unsize.EncodeInit(dualKeyMapType, []dualKeyEntry{{Key1: 1, Key2: 1, Value: 1}})
			require.NoError(t, err)
			arena := unsize.NewArenaWithConfig(data, unsize.ArenaConfig{OriginalLen: len(data), MaxGrowth: maxGrowth})

			w, err := unsize.NewExclusiveWrapper[*dualKeyMap, []dualKeyEntry](arena, dualKeyMapType)
			require.NoError(t, err)
			defer w.Close()
			m := w.Data()

			_, _, err = m.Insert(2, 2, 2)
			var growthErr *unsize.GrowthLimitError
			require.ErrorAs(t, err, &growthErr)
			require.Equal(t, data, arena.Bytes())

			require.Equal(t, 1, m.Len())
			require.False(t, m.ContainsLeft(2))
			require.False(t, m.ContainsRight(2))
			requireConsistent(t, m)

			_, _, found, err := m.RemoveByLeft(1)
			require.NoError(t, err)
			require.True(t, found)
			_, _, err = m.Insert(2, 2, 2)
			require.NoError(t, err)
			requireConsistent(t, m)
		})
	}
}

func TestDualKeyMapRandomOperations(t *testing.T) {
	t.Parallel()

	r := newRand(t)

	_, m := newDualKeyMap(t)

	expected := make(map[uint8]dualKeyEntry)
	for range 2000 {
		k1 := uint8(r.Intn(40))
		k2 := uint8(r.Intn(40))

		switch r.Intn(3) {
		case 0:
			_, _, found, err := m.RemoveByLeft(k1)
			require.NoError(t, err)
			_, ok := expected[k1]
			require.Equal(t, ok, found)
			delete(expected, k1)

		case 1:
			left, _, found := m.GetByRight(k2)
			removedLeft, _, removed, err := m.RemoveByRight(k2)
			require.NoError(t, err)
			require.Equal(t, found, removed)
			if removed {
				require.Equal(t, left, removedLeft)
				delete(expected, left)
			}

		default:
			v := uint16(r.Intn(1000))
			_, _, err := m.Insert(k1, k2, v)
			if err != nil {
				var mismatchErr *unsize.DualKeyMismatchError
				require.ErrorAs(t, err, &mismatchErr)
			} else {
				expected[k1] = dualKeyEntry{Key1: k1, Key2: k2, Value: v}
			}
		}

		requireConsistent(t, m)
		require.Equal(t, len(expected), m.Len())
	}

	for k1, e := range expected {
		k2, v, ok := m.GetByLeft(k1)
		require.True(t, ok)
		require.Equal(t, e.Key2, k2)
		require.Equal(t, e.Value, v)
	}
}
