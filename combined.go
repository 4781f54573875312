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

import "fmt"

// CombinedPtr is a view of two values laid out back to back, the way the
// fields of an unsized struct are.
type CombinedPtr[PA, PB Ptr] struct {
	A PA
	B PB
}

func (c *CombinedPtr[PA, PB]) Start() int {
	return c.A.Start()
}

func (c *CombinedPtr[PA, PB]) DataLen() int {
	return c.A.DataLen() + c.B.DataLen()
}

func (c *CombinedPtr[PA, PB]) ResizeNotification(source, change int) error {
	if err := c.A.ResizeNotification(source, change); err != nil {
		return err
	}
	return c.B.ResizeNotification(source, change)
}

// CombinedOwned is the owned form of a combined value.
type CombinedOwned[OA, OB any] struct {
	A OA
	B OB
}

// InitPair initializes the two halves of a combined value. A nil half is
// initialized with DefaultInit.
type InitPair struct {
	A any
	B any
}

func (p InitPair) halves() (any, any) {
	a, b := p.A, p.B
	if a == nil {
		a = DefaultInit{}
	}
	if b == nil {
		b = DefaultInit{}
	}
	return a, b
}

// CombinedType is the unsized type of a followed by b.
type CombinedType[PA Ptr, OA any, PB Ptr, OB any] struct {
	a    Type[PA, OA]
	b    Type[PB, OB]
	name string
	zst  ZSTStatus
}

// Combine returns the type of a followed by b. It panics if a may be
// zero-sized, since b would then start where a does.
func Combine[PA Ptr, OA any, PB Ptr, OB any](a Type[PA, OA], b Type[PB, OB]) *CombinedType[PA, OA, PB, OB] {
	name := fmt.Sprintf("(%s, %s)", a.TypeName(), b.TypeName())
	zst := combineZST(a.ZSTStatus(), b.ZSTStatus())
	mustValidType(name, zst)
	return &CombinedType[PA, OA, PB, OB]{a: a, b: b, name: name, zst: zst}
}

func (t *CombinedType[PA, OA, PB, OB]) TypeName() string {
	return t.name
}

func (t *CombinedType[PA, OA, PB, OB]) ZSTStatus() ZSTStatus {
	return t.zst
}

func (t *CombinedType[PA, OA, PB, OB]) GetPtr(c *Cursor) (*CombinedPtr[PA, PB], error) {
	a, err := t.a.GetPtr(c)
	if err != nil {
		return nil, err
	}
	b, err := t.b.GetPtr(c)
	if err != nil {
		return nil, err
	}
	return &CombinedPtr[PA, PB]{A: a, B: b}, nil
}

func (t *CombinedType[PA, OA, PB, OB]) OwnedFromPtr(p *CombinedPtr[PA, PB]) (CombinedOwned[OA, OB], error) {
	var owned CombinedOwned[OA, OB]
	var err error
	if owned.A, err = t.a.OwnedFromPtr(p.A); err != nil {
		return owned, err
	}
	if owned.B, err = t.b.OwnedFromPtr(p.B); err != nil {
		return owned, err
	}
	return owned, nil
}

func (t *CombinedType[PA, OA, PB, OB]) ByteSize(owned CombinedOwned[OA, OB]) int {
	return t.a.ByteSize(owned.A) + t.b.ByteSize(owned.B)
}

func (t *CombinedType[PA, OA, PB, OB]) FromOwned(owned CombinedOwned[OA, OB], b *[]byte) (int, error) {
	n1, err := t.a.FromOwned(owned.A, b)
	if err != nil {
		return 0, err
	}
	n2, err := t.b.FromOwned(owned.B, b)
	if err != nil {
		return 0, err
	}
	return n1 + n2, nil
}

func (t *CombinedType[PA, OA, PB, OB]) initArgs(arg any) (any, any, error) {
	switch a := arg.(type) {
	case DefaultInit:
		return a, a, nil
	case InitPair:
		argA, argB := a.halves()
		return argA, argB, nil
	default:
		return nil, nil, NewUnsupportedInitArgError(t.name, arg)
	}
}

// InitBytes accepts DefaultInit or an InitPair.
func (t *CombinedType[PA, OA, PB, OB]) InitBytes(arg any) (int, error) {
	argA, argB, err := t.initArgs(arg)
	if err != nil {
		return 0, err
	}
	n1, err := t.a.InitBytes(argA)
	if err != nil {
		return 0, err
	}
	n2, err := t.b.InitBytes(argB)
	if err != nil {
		return 0, err
	}
	return n1 + n2, nil
}

func (t *CombinedType[PA, OA, PB, OB]) Init(b *[]byte, arg any) error {
	argA, argB, err := t.initArgs(arg)
	if err != nil {
		return err
	}
	if err := t.a.Init(b, argA); err != nil {
		return err
	}
	return t.b.Init(b, argB)
}
