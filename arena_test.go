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
)

func TestArenaRealloc(t *testing.T) {
	t.Parallel()

	t.Run("grow to ceiling", func(t *testing.T) {
		t.Parallel()

		arena := unsize.NewArenaWithConfig([]byte{1, 2, 3}, unsize.ArenaConfig{OriginalLen: 3, MaxGrowth: 5})
		require.Equal(t, 8, arena.Config().Limit())

		require.NoError(t, arena.Realloc(8))
		require.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, arena.Bytes())

		err := arena.Realloc(9)
		var growthErr *unsize.GrowthLimitError
		require.ErrorAs(t, err, &growthErr)
		require.False(t, unsize.IsFatalError(err))
		require.Equal(t, 8, arena.Len())
	})

	t.Run("shrink then grow zeroes", func(t *testing.T) {
		t.Parallel()

		arena := unsize.NewArena([]byte{1, 2, 3, 4})
		require.NoError(t, arena.Realloc(2))
		require.NoError(t, arena.Realloc(4))
		require.Equal(t, []byte{1, 2, 0, 0}, arena.Bytes())
	})

	t.Run("shrinking past original is allowed", func(t *testing.T) {
		t.Parallel()

		arena := unsize.NewArenaWithConfig(make([]byte, 16), unsize.ArenaConfig{OriginalLen: 16})
		require.NoError(t, arena.Realloc(0))
		require.Equal(t, 0, arena.Len())
		require.NoError(t, arena.Realloc(16))
		require.Error(t, arena.Realloc(17))
	})

	t.Run("max account size", func(t *testing.T) {
		t.Parallel()

		arena := unsize.NewArenaWithConfig(nil, unsize.ArenaConfig{MaxGrowth: 2 * unsize.MaxAccountDataLength})
		err := arena.Realloc(unsize.MaxAccountDataLength + 1)
		var sizeErr *unsize.MaxAccountSizeError
		require.ErrorAs(t, err, &sizeErr)
		require.Equal(t, 0, arena.Len())
	})

	t.Run("generation", func(t *testing.T) {
		t.Parallel()

		arena := unsize.NewArena(nil)
		gen := arena.Generation()
		require.NoError(t, arena.Realloc(4))
		require.Equal(t, gen+1, arena.Generation())

		require.Error(t, arena.Realloc(unsize.DefaultMaxGrowth+1))
		require.Equal(t, gen+1, arena.Generation())
	})

	t.Run("new transaction", func(t *testing.T) {
		t.Parallel()

		arena := unsize.NewArenaWithConfig(nil, unsize.ArenaConfig{MaxGrowth: 4})
		require.NoError(t, arena.Realloc(4))
		require.Error(t, arena.Realloc(5))

		unsize.StartTransaction(arena)
		require.Equal(t, 4, arena.Config().OriginalLen)
		require.NoError(t, arena.Realloc(8))
		require.Error(t, arena.Realloc(9))
	})
}

func TestArenaBorrow(t *testing.T) {
	t.Parallel()

	arena := unsize.NewArena(make([]byte, 4))

	shared1, err := unsize.NewSharedWrapper[*unsize.ListPtr[uint8], []uint8](arena, u8ListLenU8)
	require.NoError(t, err)
	shared2, err := unsize.NewSharedWrapper[*unsize.ListPtr[uint8], []uint8](arena, u8ListLenU8)
	require.NoError(t, err)
	require.True(t, arena.Borrowed())

	_, err = unsize.NewExclusiveWrapper[*unsize.ListPtr[uint8], []uint8](arena, u8ListLenU8)
	var borrowErr *unsize.BorrowError
	require.ErrorAs(t, err, &borrowErr)

	shared1.Close()
	shared2.Close()
	shared2.Close()
	require.False(t, arena.Borrowed())

	w, err := unsize.NewExclusiveWrapper[*unsize.ListPtr[uint8], []uint8](arena, u8ListLenU8)
	require.NoError(t, err)

	_, err = unsize.NewSharedWrapper[*unsize.ListPtr[uint8], []uint8](arena, u8ListLenU8)
	require.ErrorAs(t, err, &borrowErr)
	_, err = unsize.NewExclusiveWrapper[*unsize.ListPtr[uint8], []uint8](arena, u8ListLenU8)
	require.ErrorAs(t, err, &borrowErr)

	w.Close()
	require.False(t, arena.Borrowed())
}

var u8ListLenU8 = unsize.ListOf[uint8](unsize.U8, unsize.LenU8)
