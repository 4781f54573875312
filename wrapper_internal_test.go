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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingPtr records the notifications it receives.
type recordingPtr struct {
	start         int
	dataLen       int
	notifications [][2]int
}

func (p *recordingPtr) Start() int {
	return p.start
}

func (p *recordingPtr) DataLen() int {
	return p.dataLen
}

func (p *recordingPtr) ResizeNotification(source, change int) error {
	p.notifications = append(p.notifications, [2]int{source, change})
	return nil
}

var errAfter = errors.New("after failed")

func newTestTop(data []byte, maxGrowth int) (*exclusiveTop, *recordingPtr) {
	root := &recordingPtr{dataLen: len(data)}
	arena := NewArenaWithConfig(data, ArenaConfig{OriginalLen: len(data), MaxGrowth: maxGrowth})
	return &exclusiveTop{arena: arena, root: root}, root
}

func TestAddBytes(t *testing.T) {
	t.Parallel()

	t.Run("opens zeroed bytes", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2, 3, 4}, 8)

		var seen []byte
		err := top.addBytes(0, 2, 3, func() error {
			seen = append([]byte(nil), top.arena.data...)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 0, 0, 0, 3, 4}, seen)
		require.Equal(t, [][2]int{{0, 3}}, root.notifications)
	})

	t.Run("at end", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2}, 8)
		require.NoError(t, top.addBytes(1, 2, 2, nil))
		require.Equal(t, []byte{1, 2, 0, 0}, top.arena.Bytes())
		require.Equal(t, [][2]int{{1, 2}}, root.notifications)
	})

	t.Run("zero amount", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2}, 8)
		called := false
		require.NoError(t, top.addBytes(0, 1, 0, func() error {
			called = true
			return nil
		}))
		require.False(t, called)
		require.Empty(t, root.notifications)
	})

	t.Run("growth limit", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2}, 2)
		err := top.addBytes(0, 1, 3, func() error {
			t.Fatal("after called on failed resize")
			return nil
		})
		var growthErr *GrowthLimitError
		require.ErrorAs(t, err, &growthErr)
		require.Equal(t, []byte{1, 2}, top.arena.Bytes())
		require.Empty(t, root.notifications)
	})

	t.Run("after fails", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2, 3, 4}, 8)
		err := top.addBytes(0, 1, 2, func() error {
			top.arena.data[1] = 7
			return errAfter
		})
		require.ErrorIs(t, err, errAfter)
		require.Equal(t, []byte{1, 2, 3, 4}, top.arena.Bytes())
		require.Empty(t, root.notifications)
	})

	t.Run("out of bounds", func(t *testing.T) {
		t.Parallel()

		top, _ := newTestTop([]byte{1, 2}, 8)
		require.PanicsWithValue(t, NewPointerOutOfBoundsError(3, 0, 2), func() {
			_ = top.addBytes(0, 3, 1, nil)
		})
		require.Panics(t, func() {
			_ = top.addBytes(0, -1, 1, nil)
		})
	})
}

func TestRemoveBytes(t *testing.T) {
	t.Parallel()

	t.Run("closes range", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2, 3, 4, 5}, 0)
		require.NoError(t, top.removeBytes(0, 1, 3, nil))
		require.Equal(t, []byte{1, 4, 5}, top.arena.Bytes())
		require.Equal(t, [][2]int{{0, -2}}, root.notifications)
	})

	t.Run("after fails", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2, 3, 4, 5}, 0)
		err := top.removeBytes(0, 1, 3, func() error {
			require.Equal(t, []byte{1, 4, 5}, top.arena.Bytes())
			return errAfter
		})
		require.ErrorIs(t, err, errAfter)
		require.Equal(t, []byte{1, 2, 3, 4, 5}, top.arena.Bytes())
		require.Empty(t, root.notifications)
	})

	t.Run("empty range", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{1, 2}, 0)
		require.NoError(t, top.removeBytes(0, 1, 1, nil))
		require.Equal(t, []byte{1, 2}, top.arena.Bytes())
		require.Empty(t, root.notifications)
	})

	t.Run("out of bounds", func(t *testing.T) {
		t.Parallel()

		top, _ := newTestTop([]byte{1, 2}, 0)
		require.Panics(t, func() {
			_ = top.removeBytes(0, 1, 3, nil)
		})
		require.Panics(t, func() {
			_ = top.removeBytes(0, 2, 1, nil)
		})
	})
}

func TestSetRegion(t *testing.T) {
	t.Parallel()

	t.Run("grow", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{9, 1, 1, 9}, 8)
		err := top.setRegion("test", 1, 1, 2, 3, func(b *[]byte) error {
			copy(*b, []byte{5, 6, 7})
			*b = (*b)[3:]
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []byte{9, 5, 6, 7, 9}, top.arena.Bytes())
		require.Equal(t, [][2]int{{1, 1}}, root.notifications)
	})

	t.Run("shrink", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{9, 1, 1, 1, 9}, 0)
		err := top.setRegion("test", 1, 1, 3, 1, func(b *[]byte) error {
			(*b)[0] = 5
			*b = (*b)[1:]
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []byte{9, 5, 9}, top.arena.Bytes())
		require.Equal(t, [][2]int{{1, -2}}, root.notifications)
	})

	t.Run("unwritten", func(t *testing.T) {
		t.Parallel()

		top, root := newTestTop([]byte{9, 1, 9}, 0)
		err := top.setRegion("test", 1, 1, 1, 1, func(*[]byte) error {
			return nil
		})
		var encodingErr *EncodingError
		require.ErrorAs(t, err, &encodingErr)
		require.Equal(t, []byte{9, 1, 9}, top.arena.Bytes())
		require.Empty(t, root.notifications)
	})

	t.Run("write fails", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			newLen int
		}{
			{name: "grow", newLen: 4},
			{name: "same", newLen: 2},
			{name: "shrink", newLen: 1},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				top, root := newTestTop([]byte{9, 1, 2, 9}, 8)
				err := top.setRegion("test", 1, 1, 2, tc.newLen, func(b *[]byte) error {
					(*b)[0] = 5
					return errAfter
				})
				require.ErrorIs(t, err, errAfter)
				require.Equal(t, []byte{9, 1, 2, 9}, top.arena.Bytes())
				require.Empty(t, root.notifications)
			})
		}
	})
}

func TestCombineZST(t *testing.T) {
	t.Parallel()

	require.Equal(t, NoZST, combineZST(NoZST, NoZST))
	require.Equal(t, TrailingZST, combineZST(NoZST, TrailingZST))
	require.Equal(t, MiddleZST, combineZST(TrailingZST, NoZST))
	require.Equal(t, MiddleZST, combineZST(TrailingZST, TrailingZST))
	require.Equal(t, "TrailingZST", TrailingZST.String())
}
