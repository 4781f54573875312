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

// ArenaConfig bounds how far an arena may grow during one transaction.
type ArenaConfig struct {
	// OriginalLen is the data length when the transaction started.
	OriginalLen int
	// MaxGrowth is how many bytes past OriginalLen the data may grow.
	MaxGrowth int
}

// Limit returns the largest length the arena may reach.
func (c ArenaConfig) Limit() int {
	return c.OriginalLen + c.MaxGrowth
}

// Arena is a contiguous account data buffer hosting unsized values.
//
// The backing array is allocated once with room for the whole growth
// ceiling, so reallocation is a reslice and views can address the arena by
// byte offset for the arena's lifetime.
//
// An arena has at most one exclusive borrower, or any number of shared
// borrowers, at a time.
type Arena struct {
	data       []byte
	config     ArenaConfig
	readers    int
	writer     bool
	generation uint64
}

// NewArena copies data into a new arena whose original length is len(data)
// and whose growth ceiling is DefaultMaxGrowth.
func NewArena(data []byte) *Arena {
	return NewArenaWithConfig(data, ArenaConfig{
		OriginalLen: len(data),
		MaxGrowth:   DefaultMaxGrowth,
	})
}

// NewArenaWithConfig copies data into a new arena bounded by config.
func NewArenaWithConfig(data []byte, config ArenaConfig) *Arena {
	if config.OriginalLen < 0 {
		config.OriginalLen = 0
	}
	if config.MaxGrowth < 0 {
		config.MaxGrowth = 0
	}

	capacity := max(len(data), min(config.Limit(), MaxAccountDataLength))

	buf := make([]byte, len(data), capacity)
	copy(buf, data)

	return &Arena{
		data:   buf,
		config: config,
	}
}

// Len returns the logical length of the arena.
func (a *Arena) Len() int {
	return len(a.data)
}

// Bytes returns the arena contents. The returned slice aliases the arena
// and must not be resliced past its length.
func (a *Arena) Bytes() []byte {
	return a.data[:len(a.data):len(a.data)]
}

// Config returns the growth bounds of the arena.
func (a *Arena) Config() ArenaConfig {
	return a.config
}

// Generation is incremented on every successful resize.
func (a *Arena) Generation() uint64 {
	return a.generation
}

// Realloc sets the logical length of the arena. Bytes exposed by growing
// are zeroed. Exceeding the growth ceiling returns an error and leaves the
// arena unchanged.
func (a *Arena) Realloc(newLen int) error {
	if newLen < 0 {
		panic(NewPointerOutOfBoundsError(newLen, 0, a.config.Limit()))
	}
	if newLen > MaxAccountDataLength {
		return NewMaxAccountSizeError(newLen)
	}
	if newLen > a.config.Limit() && newLen > len(a.data) {
		return NewGrowthLimitError(newLen, a.config.OriginalLen, a.config.MaxGrowth)
	}
	if newLen > cap(a.data) {
		grown := make([]byte, len(a.data), newLen)
		copy(grown, a.data)
		a.data = grown
	}

	oldLen := len(a.data)
	a.data = a.data[:newLen]
	if newLen > oldLen {
		clear(a.data[oldLen:])
	}

	a.generation++
	return nil
}

// restoreLen puts back a length the arena had earlier in the same backing
// array, without zeroing.
func (a *Arena) restoreLen(n int) {
	a.data = a.data[:n]
	a.generation++
}

// startTransaction makes the current length the original length of a new
// transaction.
func (a *Arena) startTransaction() {
	a.config.OriginalLen = len(a.data)
	if limit := min(a.config.Limit(), MaxAccountDataLength); limit > cap(a.data) {
		grown := make([]byte, len(a.data), limit)
		copy(grown, a.data)
		a.data = grown
	}
}

func (a *Arena) borrowShared() error {
	if a.writer {
		return NewBorrowError(false)
	}
	a.readers++
	return nil
}

func (a *Arena) releaseShared() {
	if a.readers > 0 {
		a.readers--
	}
}

func (a *Arena) borrowExclusive() error {
	if a.writer || a.readers > 0 {
		return NewBorrowError(true)
	}
	a.writer = true
	return nil
}

func (a *Arena) releaseExclusive() {
	a.writer = false
}

// Borrowed reports whether the arena currently has any borrower.
func (a *Arena) Borrowed() bool {
	return a.writer || a.readers > 0
}
