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
package test_utils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starframe/unsize"
)

// RequireOwned checks the owned form of the value in b.
func RequireOwned[P unsize.Ptr, O any](tb testing.TB, b *ByteSet[P, O], expected O) {
	tb.Helper()

	owned, err := b.Owned()
	require.NoError(tb, err)
	require.Equal(tb, expected, owned)
}

// RequireSameBytes checks the value in b is laid out exactly like expected.
func RequireSameBytes[P unsize.Ptr, O any](tb testing.TB, b *ByteSet[P, O], expected O) {
	tb.Helper()

	data, err := unsize.EncodeOwned[O](b.typ, expected)
	require.NoError(tb, err)
	require.Equal(tb, data, b.Bytes())
}

// RequireGrowthLimit checks f fails with a GrowthLimitError and leaves the
// length of the arena of b unchanged.
func RequireGrowthLimit[P unsize.Ptr, O any](tb testing.TB, b *ByteSet[P, O], f func() error) {
	tb.Helper()

	before := b.Len()
	err := f()
	require.Error(tb, err)

	var growthErr *unsize.GrowthLimitError
	require.ErrorAs(tb, err, &growthErr)
	require.False(tb, unsize.IsFatalError(err))
	require.Equal(tb, before, b.Len())
}

// RequireMapEntries checks the entries of a map view, in key order.
func RequireMapEntries[K, V any](tb testing.TB, m *unsize.MapPtr[K, V], expected []unsize.ListItem[K, V]) {
	tb.Helper()

	require.Equal(tb, len(expected), m.Len())
	i := 0
	for k, v := range m.All() {
		require.Equal(tb, expected[i].Key, k)
		require.Equal(tb, expected[i].Value, v)
		i++
	}
}
