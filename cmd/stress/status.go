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
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxStatusLength = 160

type status struct {
	lock sync.RWMutex

	runID     uuid.UUID
	startTime time.Time

	ops         uint64
	growthLimit uint64
	commits     uint64
	reloads     uint64
	accountSize int
	fingerprint uint64
}

func newStatus(runID uuid.UUID) *status {
	return &status{runID: runID, startTime: time.Now()}
}

func (s *status) String() string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	duration := time.Since(s.startTime)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return fmt.Sprintf("run %s, duration %s, heapAlloc %d MiB, %d ops, %d growth limits, %d commits, %d reloads, account %d bytes (%016x)",
		s.runID.String()[:8],
		duration.Truncate(time.Second).String(),
		m.Alloc/1024/1024,
		s.ops,
		s.growthLimit,
		s.commits,
		s.reloads,
		s.accountSize,
		s.fingerprint,
	)
}

func (s *status) incOps() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.ops++
}

func (s *status) incGrowthLimit() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.growthLimit++
}

func (s *status) commit(size int, fingerprint uint64, reloaded bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.commits++
	if reloaded {
		s.reloads++
	}
	s.accountSize = size
	s.fingerprint = fingerprint
}

func (s *status) Write() {
	writeStatus(s.String())
}

func writeStatus(status string) {
	// Clear old status
	line := fmt.Sprintf("\r%s\r", strings.Repeat(" ", maxStatusLength))
	_, _ = io.WriteString(os.Stdout, line)

	// Write new status
	_, _ = io.WriteString(os.Stdout, status)
}
