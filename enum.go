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
	"fmt"
	"strings"
)

// EnumVariant is a variant of an enum type. Variants are created with
// NewVariant.
type EnumVariant[D comparable] interface {
	Name() string
	Discriminant() D
	ZSTStatus() ZSTStatus

	getPtr(c *Cursor) (Ptr, error)
	ownedFromPtr(p Ptr) (any, error)
	byteSize(owned any) (int, error)
	fromOwned(owned any, b *[]byte) (int, error)
	initBytes(arg any) (int, error)
	init(b *[]byte, arg any) error
}

// Variant is an enum variant whose payload has type typ.
type Variant[D comparable, P Ptr, O any] struct {
	name string
	disc D
	typ  Type[P, O]
}

var _ EnumVariant[uint8] = &Variant[uint8, *UnitPtr, struct{}]{}

// NewVariant returns the variant name, tagged disc, with a payload of typ.
func NewVariant[D comparable, P Ptr, O any](name string, disc D, typ Type[P, O]) *Variant[D, P, O] {
	return &Variant[D, P, O]{name: name, disc: disc, typ: typ}
}

func (v *Variant[D, P, O]) Name() string {
	return v.name
}

func (v *Variant[D, P, O]) Discriminant() D {
	return v.disc
}

func (v *Variant[D, P, O]) ZSTStatus() ZSTStatus {
	return v.typ.ZSTStatus()
}

func (v *Variant[D, P, O]) getPtr(c *Cursor) (Ptr, error) {
	return v.typ.GetPtr(c)
}

func (v *Variant[D, P, O]) ownedFromPtr(p Ptr) (any, error) {
	typed, ok := p.(P)
	if !ok {
		return nil, NewOwnedTypeError(v.typ.TypeName(), p)
	}
	return v.typ.OwnedFromPtr(typed)
}

func (v *Variant[D, P, O]) byteSize(owned any) (int, error) {
	typed, ok := owned.(O)
	if !ok {
		return 0, NewOwnedTypeError(v.typ.TypeName(), owned)
	}
	return v.typ.ByteSize(typed), nil
}

func (v *Variant[D, P, O]) fromOwned(owned any, b *[]byte) (int, error) {
	typed, ok := owned.(O)
	if !ok {
		return 0, NewOwnedTypeError(v.typ.TypeName(), owned)
	}
	return v.typ.FromOwned(typed, b)
}

func (v *Variant[D, P, O]) initBytes(arg any) (int, error) {
	return v.typ.InitBytes(arg)
}

func (v *Variant[D, P, O]) init(b *[]byte, arg any) error {
	return v.typ.Init(b, arg)
}

// Get returns the payload of e if e is in this variant.
func (v *Variant[D, P, O]) Get(e *EnumPtr[D]) (P, bool) {
	if e.variant.Discriminant() != v.disc {
		var zero P
		return zero, false
	}
	p, ok := e.payload.(P)
	return p, ok
}

// Set switches e to this variant with a payload initialized from arg, and
// returns the new payload. The previous payload is discarded.
func (v *Variant[D, P, O]) Set(e *EnumPtr[D], arg any) (P, error) {
	var zero P
	if err := e.typ.checkVariant(v); err != nil {
		return zero, err
	}
	size, err := v.typ.InitBytes(arg)
	if err != nil {
		return zero, err
	}
	p, err := e.setVariant(v, size, func(b *[]byte) error {
		return v.typ.Init(b, arg)
	})
	if err != nil {
		return zero, err
	}
	return p.(P), nil
}

// SetOwned switches e to this variant holding owned.
func (v *Variant[D, P, O]) SetOwned(e *EnumPtr[D], owned O) (P, error) {
	var zero P
	if err := e.typ.checkVariant(v); err != nil {
		return zero, err
	}
	p, err := e.setVariant(v, v.typ.ByteSize(owned), func(b *[]byte) error {
		_, err := v.typ.FromOwned(owned, b)
		return err
	})
	if err != nil {
		return zero, err
	}
	return p.(P), nil
}

// EnumPtr is a view of a discriminant followed by the payload of the
// variant it names:
//
//	[discriminant: D][payload]
type EnumPtr[D comparable] struct {
	view
	typ     *EnumType[D]
	variant EnumVariant[D]
	payload Ptr
	// payloadLease covers the payload views. Switching variants revokes it.
	payloadLease *lease
}

var _ Ptr = &EnumPtr[uint8]{}

func (e *EnumPtr[D]) DataLen() int {
	return e.typ.disc.Size() + e.payload.DataLen()
}

func (e *EnumPtr[D]) ResizeNotification(source, change int) error {
	if source == e.start {
		return nil
	}
	if source < e.start {
		e.start += change
	}
	return e.payload.ResizeNotification(source, change)
}

// Discriminant returns the tag of the current variant.
func (e *EnumPtr[D]) Discriminant() D {
	e.check(e.typ.name)
	return e.variant.Discriminant()
}

// Variant returns the current variant.
func (e *EnumPtr[D]) Variant() EnumVariant[D] {
	e.check(e.typ.name)
	return e.variant
}

// Payload returns the view of the current payload. Variant.Get returns it typed.
func (e *EnumPtr[D]) Payload() Ptr {
	e.check(e.typ.name)
	return e.payload
}

// SetFromInit switches to the variant tagged disc, initialized from arg.
func (e *EnumPtr[D]) SetFromInit(disc D, arg any) (Ptr, error) {
	v, ok := e.typ.byDisc[disc]
	if !ok {
		return nil, NewInvalidDiscriminantError(e.typ.name, disc)
	}
	size, err := v.initBytes(arg)
	if err != nil {
		return nil, err
	}
	return e.setVariant(v, size, func(b *[]byte) error {
		return v.init(b, arg)
	})
}

// setVariant resizes the payload to size and lets write lay out the new
// payload, then writes the tag of v. Views of the old payload are revoked.
func (e *EnumPtr[D]) setVariant(v EnumVariant[D], size int, write func(b *[]byte) error) (Ptr, error) {
	top, err := e.resizable(e.typ.name)
	if err != nil {
		return nil, err
	}

	payloadStart := e.start + e.typ.disc.Size()
	if err := top.setRegion(e.typ.name, e.start, payloadStart, e.payload.DataLen(), size, write); err != nil {
		return nil, err
	}
	e.typ.disc.Encode(e.arena.data[e.start:], v.Discriminant())
	e.payloadLease.revoke()

	c := e.cursorAt(payloadStart, e.arena.Len())
	l := c.pushLease()
	p, err := v.getPtr(c)
	if err != nil {
		return nil, err
	}
	e.variant = v
	e.payload = p
	e.payloadLease = l
	return p, nil
}

// AsShared returns a read-only view valid until the next resize.
func (e *EnumPtr[D]) AsShared() *EnumPtr[D] {
	payloadStart := e.start + e.typ.disc.Size()
	p, err := e.variant.getPtr(e.sharedCursorAt(payloadStart, payloadStart+e.payload.DataLen()))
	if err != nil {
		panic(err)
	}
	return &EnumPtr[D]{view: e.shared(), typ: e.typ, variant: e.variant, payload: p}
}

// EnumOwned is the owned form of an enum value.
type EnumOwned[D comparable] struct {
	Discriminant D
	Value        any
}

// VariantInit initializes an enum to the variant tagged Discriminant.
type VariantInit[D comparable] struct {
	Discriminant D
	Arg          any
}

// EnumType is the unsized type of an enum whose variants carry payloads of
// different sizes.
type EnumType[D comparable] struct {
	name     string
	disc     Codec[D]
	variants []EnumVariant[D]
	byDisc   map[D]EnumVariant[D]
	def      EnumVariant[D]
	zst      ZSTStatus
}

var _ Type[*EnumPtr[uint8], EnumOwned[uint8]] = &EnumType[uint8]{}

// NewEnum returns an enum type with a tag encoded by disc. DefaultInit
// selects the variant tagged def. It panics on duplicate or missing tags.
func NewEnum[D comparable](name string, disc Codec[D], def D, variants ...EnumVariant[D]) *EnumType[D] {
	t := &EnumType[D]{
		name:     name,
		disc:     disc,
		variants: variants,
		byDisc:   make(map[D]EnumVariant[D], len(variants)),
	}
	if disc.Size() == 0 {
		panic(NewZSTPositionError(name))
	}
	for _, v := range variants {
		if _, ok := t.byDisc[v.Discriminant()]; ok {
			panic(fmt.Sprintf("enum %s: duplicate discriminant %v", name, v.Discriminant()))
		}
		t.byDisc[v.Discriminant()] = v
		if v.ZSTStatus() == MiddleZST {
			panic(NewZSTPositionError(name + "::" + v.Name()))
		}
		if v.ZSTStatus() == TrailingZST && !isUnitVariant(v) {
			t.zst = TrailingZST
		}
	}
	var ok bool
	if t.def, ok = t.byDisc[def]; !ok {
		panic(fmt.Sprintf("enum %s: default discriminant %v has no variant", name, def))
	}
	return t
}

// isUnitVariant reports whether v has no payload. Such a payload is zero-sized
// but never grows, so it doesn't stop fields from following the enum.
func isUnitVariant[D comparable](v EnumVariant[D]) bool {
	_, ok := v.(*Variant[D, *UnitPtr, struct{}])
	return ok
}

func (t *EnumType[D]) TypeName() string {
	return t.name
}

// ZSTStatus is TrailingZST if any payload may extend to the end of the
// arena, and NoZST otherwise: the tag always takes at least a byte.
func (t *EnumType[D]) ZSTStatus() ZSTStatus {
	return t.zst
}

// Variants returns the variants in declaration order.
func (t *EnumType[D]) Variants() []EnumVariant[D] {
	return append([]EnumVariant[D]{}, t.variants...)
}

func (t *EnumType[D]) checkVariant(v EnumVariant[D]) error {
	if registered, ok := t.byDisc[v.Discriminant()]; !ok || registered != v {
		return NewInvalidDiscriminantError(t.name, v.Discriminant())
	}
	return nil
}

func (t *EnumType[D]) GetPtr(c *Cursor) (*EnumPtr[D], error) {
	tag, err := c.Peek(t.name, t.disc.Size())
	if err != nil {
		return nil, err
	}
	d, err := t.disc.Decode(tag)
	if err != nil {
		return nil, NewInvalidDiscriminantError(t.name, tag)
	}
	v, ok := t.byDisc[d]
	if !ok {
		return nil, NewInvalidDiscriminantError(t.name, d)
	}
	start, err := c.Advance(t.name, t.disc.Size())
	if err != nil {
		return nil, err
	}
	l := c.pushLease()
	payload, err := v.getPtr(c)
	c.popLease(l)
	if err != nil {
		return nil, err
	}
	return &EnumPtr[D]{view: newView(c, start), typ: t, variant: v, payload: payload, payloadLease: l}, nil
}

func (t *EnumType[D]) OwnedFromPtr(p *EnumPtr[D]) (EnumOwned[D], error) {
	value, err := p.variant.ownedFromPtr(p.payload)
	if err != nil {
		return EnumOwned[D]{}, err
	}
	return EnumOwned[D]{Discriminant: p.variant.Discriminant(), Value: value}, nil
}

// ByteSize returns the size of owned, or just the tag size if owned names
// no variant. FromOwned reports that error.
func (t *EnumType[D]) ByteSize(owned EnumOwned[D]) int {
	v, ok := t.byDisc[owned.Discriminant]
	if !ok {
		return t.disc.Size()
	}
	n, err := v.byteSize(owned.Value)
	if err != nil {
		return t.disc.Size()
	}
	return t.disc.Size() + n
}

func (t *EnumType[D]) FromOwned(owned EnumOwned[D], b *[]byte) (int, error) {
	v, ok := t.byDisc[owned.Discriminant]
	if !ok {
		return 0, NewInvalidDiscriminantError(t.name, owned.Discriminant)
	}
	tag, err := advance(b, t.name, t.disc.Size())
	if err != nil {
		return 0, err
	}
	t.disc.Encode(tag, owned.Discriminant)
	n, err := v.fromOwned(owned.Value, b)
	if err != nil {
		return 0, err
	}
	return len(tag) + n, nil
}

func (t *EnumType[D]) initVariant(arg any) (EnumVariant[D], any, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return t.def, a, nil
	case VariantInit[D]:
		v, ok := t.byDisc[a.Discriminant]
		if !ok {
			return nil, nil, NewInvalidDiscriminantError(t.name, a.Discriminant)
		}
		if a.Arg == nil {
			return v, DefaultInit{}, nil
		}
		return v, a.Arg, nil
	default:
		return nil, nil, NewUnsupportedInitArgError(t.name, arg)
	}
}

// InitBytes accepts DefaultInit (the default variant) or a VariantInit.
func (t *EnumType[D]) InitBytes(arg any) (int, error) {
	v, varg, err := t.initVariant(arg)
	if err != nil {
		return 0, err
	}
	n, err := v.initBytes(varg)
	if err != nil {
		return 0, err
	}
	return t.disc.Size() + n, nil
}

func (t *EnumType[D]) Init(b *[]byte, arg any) error {
	v, varg, err := t.initVariant(arg)
	if err != nil {
		return err
	}
	tag, err := advance(b, t.name, t.disc.Size())
	if err != nil {
		return err
	}
	t.disc.Encode(tag, v.Discriminant())
	return v.init(b, varg)
}

func (t *EnumType[D]) String() string {
	names := make([]string, len(t.variants))
	for i, v := range t.variants {
		names[i] = fmt.Sprintf("%s = %v", v.Name(), v.Discriminant())
	}
	return t.name + " { " + strings.Join(names, ", ") + " }"
}
