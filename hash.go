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
	"github.com/fxamacker/circlehash"
	"github.com/zeebo/blake3"
)

// DiscriminatorSize is the length of an account discriminator.
const DiscriminatorSize = 8

const discriminatorNamespace = "account:"

// fingerprintSeed seeds content fingerprints. Changing it invalidates
// every stored fingerprint.
const fingerprintSeed = uint64(0x9E3779B97F4A7C15)

// NewDiscriminator derives the discriminator of the account type name:
// the first 8 bytes of blake3("account:" + name).
//
// Anchor derives its account discriminators from sha256 over the same
// preimage, so these bytes differ from an Anchor discriminator for the
// same name. Accounts written by Anchor programs don't validate here.
func NewDiscriminator(name string) Discriminator {
	sum := blake3.Sum256([]byte(discriminatorNamespace + name))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// Fingerprint returns a 64-bit content hash of b.
func Fingerprint(b []byte) uint64 {
	return circlehash.Hash64(b, fingerprintSeed)
}

// Fingerprint returns the content hash of the arena bytes.
func (a *Arena) Fingerprint() uint64 {
	return Fingerprint(a.data)
}
