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

// MaxPermittedDataIncrease is the most an account may grow within a single
// transaction, relative to its length when the transaction started.
const MaxPermittedDataIncrease = 10 * 1024

// MaxAccountDataLength is the absolute ceiling on account data length.
const MaxAccountDataLength = 10 * 1024 * 1024

// DefaultMaxGrowth is the growth ceiling given to arenas created without an
// explicit ArenaConfig.
var DefaultMaxGrowth = MaxPermittedDataIncrease

// SetMaxGrowth changes DefaultMaxGrowth and returns the previous value.
// It doesn't affect existing arenas.
func SetMaxGrowth(maxGrowth int) int {
	if maxGrowth < 0 {
		maxGrowth = 0
	}
	prev := DefaultMaxGrowth
	DefaultMaxGrowth = maxGrowth
	return prev
}
