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
	"encoding/hex"
	"fmt"
)

// Discriminator identifies the type of the data stored in an account.
type Discriminator [DiscriminatorSize]byte

func (d Discriminator) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

// AccountPtr is a view of account data: a discriminator followed by the
// account value.
type AccountPtr[P Ptr] struct {
	view
	typeName string
	// Inner is the view of the account value.
	Inner P
}

var _ Ptr = &AccountPtr[*ListPtr[uint8]]{}

func (a *AccountPtr[P]) DataLen() int {
	return DiscriminatorSize + a.Inner.DataLen()
}

func (a *AccountPtr[P]) ResizeNotification(source, change int) error {
	a.shiftBefore(source, change)
	return a.Inner.ResizeNotification(source, change)
}

// Discriminator returns the stored discriminator.
func (a *AccountPtr[P]) Discriminator() Discriminator {
	a.check(a.typeName)
	var d Discriminator
	copy(d[:], a.arena.data[a.start:])
	return d
}

// AccountType frames an unsized type as account data.
type AccountType[P Ptr, O any] struct {
	name          string
	discriminator Discriminator
	inner         Type[P, O]
}

var _ Type[*AccountPtr[*ListPtr[uint8]], []uint8] = &AccountType[*ListPtr[uint8], []uint8]{}

// NewAccountType returns the account type called name holding inner.
func NewAccountType[P Ptr, O any](name string, inner Type[P, O]) *AccountType[P, O] {
	mustValidType(inner.TypeName(), inner.ZSTStatus())
	return &AccountType[P, O]{
		name:          name,
		discriminator: NewDiscriminator(name),
		inner:         inner,
	}
}

func (t *AccountType[P, O]) TypeName() string {
	return t.name
}

// Discriminator returns the discriminator of the account type.
func (t *AccountType[P, O]) Discriminator() Discriminator {
	return t.discriminator
}

// Inner returns the type of the account value.
func (t *AccountType[P, O]) Inner() Type[P, O] {
	return t.inner
}

func (t *AccountType[P, O]) ZSTStatus() ZSTStatus {
	return combineZST(NoZST, t.inner.ZSTStatus())
}

func (t *AccountType[P, O]) GetPtr(c *Cursor) (*AccountPtr[P], error) {
	start, err := c.Advance(t.name, DiscriminatorSize)
	if err != nil {
		return nil, err
	}
	var got Discriminator
	copy(got[:], c.arena.data[start:])
	if got != t.discriminator {
		return nil, NewDiscriminatorMismatchError(t.name, t.discriminator, got)
	}
	inner, err := t.inner.GetPtr(c)
	if err != nil {
		return nil, err
	}
	return &AccountPtr[P]{view: newView(c, start), typeName: t.name, Inner: inner}, nil
}

func (t *AccountType[P, O]) OwnedFromPtr(p *AccountPtr[P]) (O, error) {
	return t.inner.OwnedFromPtr(p.Inner)
}

func (t *AccountType[P, O]) ByteSize(owned O) int {
	return DiscriminatorSize + t.inner.ByteSize(owned)
}

func (t *AccountType[P, O]) writeDiscriminator(b *[]byte) error {
	d, err := advance(b, t.name, DiscriminatorSize)
	if err != nil {
		return err
	}
	copy(d, t.discriminator[:])
	return nil
}

func (t *AccountType[P, O]) FromOwned(owned O, b *[]byte) (int, error) {
	if err := t.writeDiscriminator(b); err != nil {
		return 0, err
	}
	n, err := t.inner.FromOwned(owned, b)
	if err != nil {
		return 0, err
	}
	return DiscriminatorSize + n, nil
}

// InitBytes passes arg through to the account value.
func (t *AccountType[P, O]) InitBytes(arg any) (int, error) {
	n, err := t.inner.InitBytes(arg)
	if err != nil {
		return 0, err
	}
	return DiscriminatorSize + n, nil
}

func (t *AccountType[P, O]) Init(b *[]byte, arg any) error {
	if err := t.writeDiscriminator(b); err != nil {
		return err
	}
	return t.inner.Init(b, arg)
}

func (t *AccountType[P, O]) String() string {
	return fmt.Sprintf("%s(%s)", t.name, t.inner.TypeName())
}
