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
	"flag"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starframe/unsize"
	"github.com/starframe/unsize/test_utils"
)

var (
	runes = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_")
)

var (
	seed     = flag.Int64("seed", 0, "seed for pseudo-random source")
	seedOnce sync.Once
)

func newRand(tb testing.TB) *rand.Rand {
	seedOnce.Do(func() {
		if *seed == 0 {
			*seed = time.Now().UnixNano()
		}
	})

	// Benchmarks always log, so only log for tests which
	// will only log with -v flag or on error.
	if t, ok := tb.(*testing.T); ok {
		t.Logf("seed: %d\n", *seed)
	}

	return rand.New(rand.NewSource(*seed))
}

// randStr returns random UTF-8 string of given length.
func randStr(r *rand.Rand, length int) string {
	b := make([]rune, length)
	for i := 0; i < length; i++ {
		b[i] = runes[r.Intn(len(runes))]
	}
	return string(b)
}

// mut borrows b exclusively for the rest of the test.
func mut[P unsize.Ptr, O any](t *testing.T, b *test_utils.ByteSet[P, O]) *unsize.ExclusiveWrapper[P, O] {
	t.Helper()

	w, err := b.Mut()
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

var (
	u64List = unsize.ListOf[uint64](unsize.U64, unsize.LenU32)
	u8List  = unsize.ListOf[uint8](unsize.U8, unsize.LenU32)
	u32List = unsize.ListOf[uint32](unsize.U32, unsize.LenU32)
)
