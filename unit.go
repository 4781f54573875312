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

// UnitPtr is a view of the empty value.
type UnitPtr struct {
	view
}

func (*UnitPtr) DataLen() int {
	return 0
}

func (u *UnitPtr) ResizeNotification(source, change int) error {
	u.shiftBefore(source, change)
	return nil
}

// UnitType is the zero-sized type, used for payload-less enum variants.
type UnitType struct{}

// Unit is the UnitType.
var Unit = &UnitType{}

var _ Type[*UnitPtr, struct{}] = Unit

func (*UnitType) TypeName() string {
	return "()"
}

func (*UnitType) ZSTStatus() ZSTStatus {
	return TrailingZST
}

func (*UnitType) GetPtr(c *Cursor) (*UnitPtr, error) {
	return &UnitPtr{view: newView(c, c.Offset())}, nil
}

func (*UnitType) OwnedFromPtr(*UnitPtr) (struct{}, error) {
	return struct{}{}, nil
}

func (*UnitType) ByteSize(struct{}) int {
	return 0
}

func (*UnitType) FromOwned(struct{}, *[]byte) (int, error) {
	return 0, nil
}

// InitBytes accepts DefaultInit or struct{}.
func (*UnitType) InitBytes(arg any) (int, error) {
	switch arg.(type) {
	case DefaultInit, struct{}:
		return 0, nil
	default:
		return 0, NewUnsupportedInitArgError("()", arg)
	}
}

func (u *UnitType) Init(_ *[]byte, arg any) error {
	_, err := u.InitBytes(arg)
	return err
}
