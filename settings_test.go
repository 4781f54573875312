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

// Not parallel: SetMaxGrowth changes a package default.
func TestSetMaxGrowth(t *testing.T) {
	prev := unsize.SetMaxGrowth(8)
	defer unsize.SetMaxGrowth(prev)

	t.Run("ceiling", func(t *testing.T) {
		b, err := test_utils.NewByteSet[*unsize.ListPtr[uint32], []uint32](u32List, []uint32{1})
		require.NoError(t, err)
		require.Equal(t, 8, b.Arena().Config().MaxGrowth)

		list := mut(t, b).Data()
		require.NoError(t, list.PushAll([]uint32{2, 3}))
		test_utils.RequireGrowthLimit(t, b, func() error {
			return list.Push(4)
		})
		require.Equal(t, 3, list.Len())
	})

	t.Run("negative", func(t *testing.T) {
		require.Equal(t, 8, unsize.SetMaxGrowth(-5))
		require.Equal(t, 0, unsize.DefaultMaxGrowth)

		b, err := test_utils.NewDefaultByteSet[*unsize.ListPtr[uint32], []uint32](u32List)
		require.NoError(t, err)

		list := mut(t, b).Data()
		test_utils.RequireGrowthLimit(t, b, func() error {
			return list.Push(1)
		})
		require.True(t, list.IsEmpty())
	})
}
