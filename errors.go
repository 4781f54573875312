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
	"errors"
	"fmt"
)

type Error interface {
	// returns true if the error is fatal
	IsFatal() bool
	// and anything else that is needed to be an error
	error
}

// IsFatalError returns true if err or any error it wraps reports itself as fatal.
func IsFatalError(err error) bool {
	var e Error
	if errors.As(err, &e) {
		return e.IsFatal()
	}
	return false
}

// IndexOutOfBoundsError is returned when a list or map operation is given an index which is out of bounds
type IndexOutOfBoundsError struct {
	index int
	min   int
	max   int
}

// NewIndexOutOfBoundsError constructs a IndexOutOfBoundsError
func NewIndexOutOfBoundsError(index, min, max int) *IndexOutOfBoundsError {
	return &IndexOutOfBoundsError{index: index, min: min, max: max}
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("the given index %d is not in the acceptable range (%d-%d)", e.index, e.min, e.max)
}

// IsFatal returns true if the error is fatal
func (e *IndexOutOfBoundsError) IsFatal() bool {
	return false
}

// InvalidRangeError is returned when a range operation is given a range outside [0, len]
type InvalidRangeError struct {
	start  int
	end    int
	length int
}

// NewInvalidRangeError constructs an InvalidRangeError
func NewInvalidRangeError(start, end, length int) *InvalidRangeError {
	return &InvalidRangeError{start: start, end: end, length: length}
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("the given range %d..%d is invalid for length %d", e.start, e.end, e.length)
}

// IsFatal returns true if the error is fatal
func (e *InvalidRangeError) IsFatal() bool {
	return false
}

// MaxLengthError is returned when a length prefix can't represent the new number of elements
type MaxLengthError struct {
	length    uint64
	maxLength uint64
}

// NewMaxLengthError constructs a MaxLengthError
func NewMaxLengthError(length, maxLength uint64) *MaxLengthError {
	return &MaxLengthError{length: length, maxLength: maxLength}
}

func (e *MaxLengthError) Error() string {
	return fmt.Sprintf("length %d exceeds the maximum of the length prefix (%d)", e.length, e.maxLength)
}

// IsFatal returns true if the error is fatal
func (e *MaxLengthError) IsFatal() bool {
	return false
}

// GrowthLimitError is returned when a resize would take an arena past its growth ceiling.
// The arena is left unchanged.
type GrowthLimitError struct {
	requested   int
	originalLen int
	maxGrowth   int
}

// NewGrowthLimitError constructs a GrowthLimitError
func NewGrowthLimitError(requested, originalLen, maxGrowth int) *GrowthLimitError {
	return &GrowthLimitError{requested: requested, originalLen: originalLen, maxGrowth: maxGrowth}
}

func (e *GrowthLimitError) Error() string {
	return fmt.Sprintf(
		"requested length %d exceeds the growth limit (original length %d + max growth %d)",
		e.requested,
		e.originalLen,
		e.maxGrowth,
	)
}

// IsFatal returns true if the error is fatal
func (e *GrowthLimitError) IsFatal() bool {
	return false
}

// MaxAccountSizeError is returned when a resize would exceed MaxAccountDataLength
type MaxAccountSizeError struct {
	requested int
}

// NewMaxAccountSizeError constructs a MaxAccountSizeError
func NewMaxAccountSizeError(requested int) *MaxAccountSizeError {
	return &MaxAccountSizeError{requested: requested}
}

func (e *MaxAccountSizeError) Error() string {
	return fmt.Sprintf("requested length %d exceeds the maximum account size %d", e.requested, MaxAccountDataLength)
}

// IsFatal returns true if the error is fatal
func (e *MaxAccountSizeError) IsFatal() bool {
	return false
}

// NotEnoughBytesError is returned when decoding a view from fewer bytes than the type requires
type NotEnoughBytesError struct {
	typeName  string
	needed    int
	remaining int
}

// NewNotEnoughBytesError constructs a NotEnoughBytesError
func NewNotEnoughBytesError(typeName string, needed, remaining int) *NotEnoughBytesError {
	return &NotEnoughBytesError{typeName: typeName, needed: needed, remaining: remaining}
}

func (e *NotEnoughBytesError) Error() string {
	return fmt.Sprintf("not enough bytes to decode %s: need %d, have %d", e.typeName, e.needed, e.remaining)
}

// IsFatal returns true if the error is fatal
func (e *NotEnoughBytesError) IsFatal() bool {
	return false
}

// BorrowError is returned when an arena is already borrowed in a conflicting way
type BorrowError struct {
	exclusive bool
}

// NewBorrowError constructs a BorrowError. exclusive reports the kind of borrow that was requested.
func NewBorrowError(exclusive bool) *BorrowError {
	return &BorrowError{exclusive: exclusive}
}

func (e *BorrowError) Error() string {
	if e.exclusive {
		return "arena is already borrowed"
	}
	return "arena is exclusively borrowed"
}

// IsFatal returns true if the error is fatal
func (e *BorrowError) IsFatal() bool {
	return false
}

// ReadOnlyViewError is returned when a mutation is attempted through a shared view
type ReadOnlyViewError struct {
	typeName string
}

// NewReadOnlyViewError constructs a ReadOnlyViewError
func NewReadOnlyViewError(typeName string) *ReadOnlyViewError {
	return &ReadOnlyViewError{typeName: typeName}
}

func (e *ReadOnlyViewError) Error() string {
	return fmt.Sprintf("cannot mutate %s through a shared view", e.typeName)
}

// IsFatal returns true if the error is fatal
func (e *ReadOnlyViewError) IsFatal() bool {
	return true
}

// StaleViewError is raised when a detached view is used after the arena was resized,
// or when any view is used after the value it was decoded from was replaced
type StaleViewError struct {
	typeName string
	gen      uint64
	current  uint64
	replaced bool
}

// NewStaleViewError constructs a StaleViewError
func NewStaleViewError(typeName string, gen, current uint64) *StaleViewError {
	return &StaleViewError{typeName: typeName, gen: gen, current: current}
}

// NewReplacedViewError constructs a StaleViewError for a view whose value was replaced
func NewReplacedViewError(typeName string) *StaleViewError {
	return &StaleViewError{typeName: typeName, replaced: true}
}

func (e *StaleViewError) Error() string {
	if e.replaced {
		return fmt.Sprintf("%s view used after its value was replaced", e.typeName)
	}
	return fmt.Sprintf("%s view from resize generation %d used at generation %d", e.typeName, e.gen, e.current)
}

// IsFatal returns true if the error is fatal
func (e *StaleViewError) IsFatal() bool {
	return true
}

// PointerOutOfBoundsError is the panic value raised when the resize protocol is given
// an offset outside the arena window
type PointerOutOfBoundsError struct {
	offset int
	min    int
	max    int
}

// NewPointerOutOfBoundsError constructs a PointerOutOfBoundsError
func NewPointerOutOfBoundsError(offset, min, max int) *PointerOutOfBoundsError {
	return &PointerOutOfBoundsError{offset: offset, min: min, max: max}
}

func (e *PointerOutOfBoundsError) Error() string {
	return fmt.Sprintf("offset %d is outside the arena window (%d-%d)", e.offset, e.min, e.max)
}

// IsFatal returns true if the error is fatal
func (e *PointerOutOfBoundsError) IsFatal() bool {
	return true
}

// ZSTPositionError is the panic value raised when a zero-sized component is composed
// in front of another field
type ZSTPositionError struct {
	typeName string
}

// NewZSTPositionError constructs a ZSTPositionError
func NewZSTPositionError(typeName string) *ZSTPositionError {
	return &ZSTPositionError{typeName: typeName}
}

func (e *ZSTPositionError) Error() string {
	return fmt.Sprintf("%s has a zero-sized component before its last field", e.typeName)
}

// IsFatal returns true if the error is fatal
func (e *ZSTPositionError) IsFatal() bool {
	return true
}

// UnexpectedResizeError is a fatal error returned when a resize notification reaches a view
// from a position that view can't be resized at
type UnexpectedResizeError struct {
	typeName string
	source   int
	start    int
}

// NewUnexpectedResizeError constructs an UnexpectedResizeError
func NewUnexpectedResizeError(typeName string, source, start int) *UnexpectedResizeError {
	return &UnexpectedResizeError{typeName: typeName, source: source, start: start}
}

func (e *UnexpectedResizeError) Error() string {
	return fmt.Sprintf("unexpected resize at offset %d inside %s starting at %d", e.source, e.typeName, e.start)
}

// IsFatal returns true if the error is fatal
func (e *UnexpectedResizeError) IsFatal() bool {
	return true
}

// InvalidDiscriminantError is a fatal error returned when an enum tag matches no variant
type InvalidDiscriminantError struct {
	typeName     string
	discriminant any
}

// NewInvalidDiscriminantError constructs an InvalidDiscriminantError
func NewInvalidDiscriminantError(typeName string, discriminant any) *InvalidDiscriminantError {
	return &InvalidDiscriminantError{typeName: typeName, discriminant: discriminant}
}

func (e *InvalidDiscriminantError) Error() string {
	return fmt.Sprintf("invalid account data: %v is not a discriminant of %s", e.discriminant, e.typeName)
}

// IsFatal returns true if the error is fatal
func (e *InvalidDiscriminantError) IsFatal() bool {
	return true
}

// DiscriminatorMismatchError is returned when account data carries another account type's discriminator
type DiscriminatorMismatchError struct {
	name     string
	expected Discriminator
	got      Discriminator
}

// NewDiscriminatorMismatchError constructs a DiscriminatorMismatchError
func NewDiscriminatorMismatchError(name string, expected, got Discriminator) *DiscriminatorMismatchError {
	return &DiscriminatorMismatchError{name: name, expected: expected, got: got}
}

func (e *DiscriminatorMismatchError) Error() string {
	return fmt.Sprintf("account discriminator %s doesn't match %s (%s)", e.got, e.name, e.expected)
}

// IsFatal returns true if the error is fatal
func (e *DiscriminatorMismatchError) IsFatal() bool {
	return false
}

// InvalidBitPatternError is returned when bytes aren't a valid encoding of a checked type
type InvalidBitPatternError struct {
	typeName string
	data     []byte
}

// NewInvalidBitPatternError constructs an InvalidBitPatternError
func NewInvalidBitPatternError(typeName string, data []byte) *InvalidBitPatternError {
	return &InvalidBitPatternError{typeName: typeName, data: append([]byte(nil), data...)}
}

func (e *InvalidBitPatternError) Error() string {
	return fmt.Sprintf("invalid bit pattern %x for %s", e.data, e.typeName)
}

// IsFatal returns true if the error is fatal
func (e *InvalidBitPatternError) IsFatal() bool {
	return false
}

// InvalidUTF8Error is returned when an unsized string holds bytes which aren't UTF-8
type InvalidUTF8Error struct {
	offset int
}

// NewInvalidUTF8Error constructs an InvalidUTF8Error
func NewInvalidUTF8Error(offset int) *InvalidUTF8Error {
	return &InvalidUTF8Error{offset: offset}
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("string data at offset %d is not valid UTF-8", e.offset)
}

// IsFatal returns true if the error is fatal
func (e *InvalidUTF8Error) IsFatal() bool {
	return false
}

// UnsupportedInitArgError is returned when a type is initialized with an argument kind it doesn't accept
type UnsupportedInitArgError struct {
	typeName string
	arg      any
}

// NewUnsupportedInitArgError constructs an UnsupportedInitArgError
func NewUnsupportedInitArgError(typeName string, arg any) *UnsupportedInitArgError {
	return &UnsupportedInitArgError{typeName: typeName, arg: arg}
}

func (e *UnsupportedInitArgError) Error() string {
	return fmt.Sprintf("%s can't be initialized from %T", e.typeName, e.arg)
}

// IsFatal returns true if the error is fatal
func (e *UnsupportedInitArgError) IsFatal() bool {
	return false
}

// OwnedTypeError is returned when an erased owned value has the wrong Go type
type OwnedTypeError struct {
	typeName string
	value    any
}

// NewOwnedTypeError constructs an OwnedTypeError
func NewOwnedTypeError(typeName string, value any) *OwnedTypeError {
	return &OwnedTypeError{typeName: typeName, value: value}
}

func (e *OwnedTypeError) Error() string {
	return fmt.Sprintf("%T is not an owned value of %s", e.value, e.typeName)
}

// IsFatal returns true if the error is fatal
func (e *OwnedTypeError) IsFatal() bool {
	return false
}

// DualKeyMismatchError is returned when the two keys of a dual key map insert disagree about
// which entry they identify. The map is left unchanged.
type DualKeyMismatchError struct {
	reason string
}

// NewDualKeyMismatchError constructs a DualKeyMismatchError
func NewDualKeyMismatchError(reason string) *DualKeyMismatchError {
	return &DualKeyMismatchError{reason: reason}
}

func (e *DualKeyMismatchError) Error() string {
	return e.reason
}

// IsFatal returns true if the error is fatal
func (e *DualKeyMismatchError) IsFatal() bool {
	return false
}

// DualKeyMapStateError is a fatal error returned when the indices of a dual key map
// don't describe its entry list
type DualKeyMapStateError struct {
	msg string
}

// NewDualKeyMapStateErrorf constructs a DualKeyMapStateError
func NewDualKeyMapStateErrorf(msg string, args ...any) *DualKeyMapStateError {
	return &DualKeyMapStateError{msg: fmt.Sprintf(msg, args...)}
}

func (e *DualKeyMapStateError) Error() string {
	return "dual key map is corrupted: " + e.msg
}

// IsFatal returns true if the error is fatal
func (e *DualKeyMapStateError) IsFatal() bool {
	return true
}

// StorageError is a fatal error returned when storage fails
type StorageError struct {
	err error
}

// NewStorageError constructs a StorageError
func NewStorageError(err error) *StorageError {
	return &StorageError{err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failed: %s", e.err.Error())
}

// IsFatal returns true if the error is fatal
func (e *StorageError) IsFatal() bool {
	return true
}

// Unwrap returns the wrapped err
func (e *StorageError) Unwrap() error {
	return e.err
}

// AccountNotFoundError is returned when an account isn't in storage
type AccountNotFoundError struct {
	address Address
}

// NewAccountNotFoundError constructs an AccountNotFoundError
func NewAccountNotFoundError(address Address) *AccountNotFoundError {
	return &AccountNotFoundError{address: address}
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %s not found", e.address)
}

// IsFatal returns true if the error is fatal
func (e *AccountNotFoundError) IsFatal() bool {
	return false
}

// EncodingError is a fatal error returned when a encoding operation fails
type EncodingError struct {
	err error
}

// NewEncodingError constructs a EncodingError
func NewEncodingError(err error) *EncodingError {
	return &EncodingError{err: err}
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding has failed: %s", e.err.Error())
}

// IsFatal returns true if the error is fatal
func (e *EncodingError) IsFatal() bool {
	return true
}

// Unwrap returns the wrapped err
func (e *EncodingError) Unwrap() error {
	return e.err
}

// DecodingError is a fatal error returned when a decoding operation fails
type DecodingError struct {
	err error
}

// NewDecodingError constructs a DecodingError
func NewDecodingError(err error) *DecodingError {
	return &DecodingError{err: err}
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding has failed: %s", e.err.Error())
}

// IsFatal returns true if the error is fatal
func (e *DecodingError) IsFatal() bool {
	return true
}

// Unwrap returns the wrapped err
func (e *DecodingError) Unwrap() error {
	return e.err
}
