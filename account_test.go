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

type counterOwned = unsize.CombinedOwned[uint64, []uint32]

var (
	counterValue = unsize.Combine[*unsize.PackedValue[uint64], uint64, u32ListPtr, []uint32](unsize.Sized[uint64](unsize.U64), u32List)
	counterType  = unsize.NewAccountType[*unsize.CombinedPtr[*unsize.PackedValue[uint64], u32ListPtr], counterOwned]("Counter", counterValue)
)

type counterPtr = *unsize.AccountPtr[*unsize.CombinedPtr[*unsize.PackedValue[uint64], u32ListPtr]]

func TestAccount(t *testing.T) {
	t.Parallel()

	b, err := test_utils.NewDefaultByteSet[counterPtr, counterOwned](counterType)
	require.NoError(t, err)

	d := counterType.Discriminator()
	require.Equal(t, unsize.NewDiscriminator("Counter"), d)
	require.Equal(t, d[:], b.Bytes()[:unsize.DiscriminatorSize])
	require.Equal(t, unsize.DiscriminatorSize+8+4, b.Len())

	err = b.Update(func(w *unsize.ExclusiveWrapper[counterPtr, counterOwned]) error {
		account := w.Data()
		require.Equal(t, d, account.Discriminator())
		if err := account.Inner.A.Set(7); err != nil {
			return err
		}
		return account.Inner.B.PushAll([]uint32{1, 2})
	})
	require.NoError(t, err)

	test_utils.RequireOwned(t, b, counterOwned{A: 7, B: []uint32{1, 2}})
	require.Contains(t, counterType.String(), "Counter")
}

func TestAccountDiscriminatorMismatch(t *testing.T) {
	t.Parallel()

	data, err := unsize.EncodeOwned[counterOwned](counterType, counterOwned{A: 1})
	require.NoError(t, err)
	data[0] ^= 0xff

	b := test_utils.NewByteSetFromBytes[counterPtr, counterOwned](counterType, data)
	_, err = b.Mut()
	var mismatchErr *unsize.DiscriminatorMismatchError
	require.ErrorAs(t, err, &mismatchErr)
	require.False(t, b.Arena().Borrowed())

	_, err = unsize.Owned[counterPtr, counterOwned](counterType, data[:4])
	var bytesErr *unsize.NotEnoughBytesError
	require.ErrorAs(t, err, &bytesErr)
}

func TestAccountSetFrom(t *testing.T) {
	t.Parallel()

	b, err := test_utils.NewDefaultByteSet[counterPtr, counterOwned](counterType)
	require.NoError(t, err)

	w := mut(t, b)
	old := w.Data().Inner.B
	require.NoError(t, w.SetFromOwned(counterOwned{A: 3, B: []uint32{9, 9, 9}}))
	require.Equal(t, 3, w.Data().Inner.B.Len())

	// Views decoded before the root was replaced are revoked.
	var staleErr *unsize.StaleViewError
	require.ErrorAs(t, old.Push(1), &staleErr)
	require.Equal(t, 3, w.Data().Inner.B.Len())

	require.NoError(t, w.SetFromInit(unsize.InitPair{A: uint64(5)}))
	owned, err := w.Owned()
	require.NoError(t, err)
	require.Equal(t, uint64(5), owned.A)
	require.Empty(t, owned.B)
	require.Equal(t, counterType.Discriminator(), w.Data().Discriminator())
}
