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

import "slices"

// sortedIndex searches s, sorted by cmp, for key. It returns the index of
// key and true, or its insertion point and false.
func sortedIndex[S ~[]E, E, K any](s S, key K, cmp func(E, K) int) (int, bool) {
	return slices.BinarySearchFunc(s, key, cmp)
}

// insertSorted puts e into s, sorted by cmp, replacing the element with the
// same key. It returns the replaced element if there was one.
func insertSorted[S ~[]E, E any](s S, e E, cmp func(a, b E) int) (S, E, bool) {
	i, found := slices.BinarySearchFunc(s, e, cmp)
	if found {
		old := s[i]
		s[i] = e
		return s, old, true
	}
	var zero E
	return slices.Insert(s, i, e), zero, false
}

// removeSorted removes the element with key from s, sorted by cmp.
func removeSorted[S ~[]E, E, K any](s S, key K, cmp func(E, K) int) (S, E, bool) {
	i, found := slices.BinarySearchFunc(s, key, cmp)
	if !found {
		var zero E
		return s, zero, false
	}
	old := s[i]
	return slices.Delete(s, i, i+1), old, true
}

// sortedUnique returns a sorted copy of s in which only the last of equal
// elements survives.
func sortedUnique[S ~[]E, E any](s S, cmp func(a, b E) int) S {
	out := slices.Clone(s)
	slices.SortStableFunc(out, cmp)

	n := 0
	for i := range out {
		if n > 0 && cmp(out[n-1], out[i]) == 0 {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	clear(out[n:])
	return out[:n]
}

func sortAddresses(addresses []Address) {
	slices.SortFunc(addresses, Address.Compare)
}
