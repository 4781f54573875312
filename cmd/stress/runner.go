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
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	log "github.com/inconshreveable/log15"

	"github.com/starframe/unsize"
)

const (
	maxTags      = 255
	maxNoteChars = 64

	// reloadEvery is how many commits pass between reloads of the account
	// from the base storage.
	reloadEvery = 8
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

var r *rand.Rand

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Printf("rand seed 0x%x\n", seed)
	return rand.New(rand.NewSource(seed))
}

func randStr(n int) string {
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = letters[r.Intn(len(letters))]
	}
	return string(runes)
}

func randTags(n int) []uint16 {
	tags := make([]uint16, n)
	for i := range tags {
		tags[i] = uint16(r.Intn(1 << 16))
	}
	return tags
}

type runner struct {
	cfg     config
	log     log.Logger
	base    unsize.BaseStorage
	storage *unsize.AccountStorage
	address unsize.Address
	model   *model
	status  *status
}

func (rn *runner) newStorage() *unsize.AccountStorage {
	return unsize.NewAccountStorage(rn.base, unsize.WithMaxGrowth(rn.cfg.maxGrowth))
}

func (rn *runner) run(ctx context.Context) error {
	rn.storage = rn.newStorage()
	rn.model = newModel()

	data, err := unsize.EncodeInit(accountType, unsize.DefaultInit{})
	if err != nil {
		return fmt.Errorf("failed to lay out new account: %w", err)
	}

	exists, err := rn.storage.Exists(rn.address)
	if err != nil {
		return err
	}
	if exists {
		rn.log.Info("replacing existing account", "address", rn.address)
		if err := rn.storage.Delete(rn.address); err != nil {
			return err
		}
	}
	if _, err := rn.storage.Create(rn.address, data); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if err := rn.storage.Commit(); err != nil {
		return err
	}

	for commits := 1; ctx.Err() == nil; commits++ {
		if err := rn.transaction(); err != nil {
			return err
		}
		if err := rn.commit(commits%reloadEvery == 0); err != nil {
			return err
		}
	}
	return nil
}

// transaction runs up to commitEvery random operations on the account and
// checks the result.
func (rn *runner) transaction() error {
	arena, err := rn.storage.Load(rn.address)
	if err != nil {
		return err
	}

	w, err := unsize.NewExclusiveWrapper[accountPtr, bodyOwned](arena, accountType)
	if err != nil {
		return err
	}
	defer w.Close()

	v := viewsOf(w.Data())
	for range rn.cfg.commitEvery {
		before := arena.Len()
		err := rn.step(v)
		if err == nil {
			rn.status.incOps()
			continue
		}

		var growthErr *unsize.GrowthLimitError
		if !errors.As(err, &growthErr) {
			return err
		}
		if arena.Len() != before {
			return fmt.Errorf("growth limit changed account length from %d to %d: %w", before, arena.Len(), err)
		}
		rn.status.incGrowthLimit()
		rn.log.Debug("hit growth limit", "len", before, "err", err)
		break
	}

	if err := rn.model.checkOwners(v.owners); err != nil {
		return err
	}
	owned, err := w.Owned()
	if err != nil {
		return err
	}
	return rn.model.check(owned)
}

func (rn *runner) commit(reload bool) error {
	if err := rn.storage.Commit(); err != nil {
		return err
	}

	if reload {
		rn.storage = rn.newStorage()
	}

	arena, err := rn.storage.Load(rn.address)
	if err != nil {
		return err
	}
	if reload {
		owned, err := unsize.Owned[accountPtr, bodyOwned](accountType, arena.Bytes())
		if err != nil {
			return err
		}
		if err := rn.model.check(owned); err != nil {
			return fmt.Errorf("reloaded account: %w", err)
		}
	}

	rn.status.commit(arena.Len(), arena.Fingerprint(), reload)
	rn.log.Debug("committed", "len", arena.Len(), "reload", reload)
	return nil
}

func (rn *runner) step(v views) error {
	switch r.Intn(12) {
	case 0, 1:
		return rn.pushValue(v)
	case 2:
		return rn.insertValue(v)
	case 3:
		return rn.setValue(v)
	case 4:
		return rn.removeValue(v)
	case 5:
		return rn.popValue(v)
	case 6, 7:
		return rn.insertBalance(v)
	case 8:
		return rn.removeBalance(v)
	case 9:
		return rn.insertOwner(v)
	case 10:
		return rn.removeOwner(v)
	default:
		return rn.updateState(v)
	}
}

func (rn *runner) full() bool {
	return len(rn.model.values) >= rn.cfg.maxLength
}

func (rn *runner) pushValue(v views) error {
	if rn.full() {
		return rn.removeValue(v)
	}
	value := r.Uint32()
	if err := v.values.Push(value); err != nil {
		return err
	}
	rn.model.values = append(rn.model.values, value)
	return nil
}

func (rn *runner) insertValue(v views) error {
	if rn.full() {
		return rn.removeValue(v)
	}
	index := r.Intn(len(rn.model.values) + 1)
	value := r.Uint32()
	if err := v.values.Insert(index, value); err != nil {
		return err
	}
	rn.model.values = append(rn.model.values[:index], append([]uint32{value}, rn.model.values[index:]...)...)
	return nil
}

func (rn *runner) setValue(v views) error {
	if len(rn.model.values) == 0 {
		return rn.pushValue(v)
	}
	index := r.Intn(len(rn.model.values))
	value := r.Uint32()
	if err := v.values.Set(index, value); err != nil {
		return err
	}
	rn.model.values[index] = value
	return nil
}

func (rn *runner) removeValue(v views) error {
	if len(rn.model.values) == 0 {
		return nil
	}
	index := r.Intn(len(rn.model.values))
	removed, err := v.values.Remove(index)
	if err != nil {
		return err
	}
	if removed != rn.model.values[index] {
		return fmt.Errorf("values: removed %d at %d, expected %d", removed, index, rn.model.values[index])
	}
	rn.model.values = append(rn.model.values[:index], rn.model.values[index+1:]...)
	return nil
}

func (rn *runner) popValue(v views) error {
	popped, ok, err := v.values.Pop()
	if err != nil {
		return err
	}
	if ok != (len(rn.model.values) > 0) {
		return fmt.Errorf("values: pop returned %t with %d elements", ok, len(rn.model.values))
	}
	if !ok {
		return nil
	}
	last := len(rn.model.values) - 1
	if popped != rn.model.values[last] {
		return fmt.Errorf("values: popped %d, expected %d", popped, rn.model.values[last])
	}
	rn.model.values = rn.model.values[:last]
	return nil
}

func (rn *runner) randKey() uint32 {
	return uint32(r.Intn(2 * rn.cfg.maxLength))
}

func (rn *runner) insertBalance(v views) error {
	key := rn.randKey()
	if _, exists := rn.model.balances[key]; !exists && len(rn.model.balances) >= rn.cfg.maxLength {
		return rn.removeBalance(v)
	}
	value := r.Uint64()
	old, replaced, err := v.balances.Insert(key, value)
	if err != nil {
		return err
	}
	expected, exists := rn.model.balances[key]
	if replaced != exists || (exists && old != expected) {
		return fmt.Errorf("balances: insert of %d replaced (%d, %t), expected (%d, %t)", key, old, replaced, expected, exists)
	}
	rn.model.balances[key] = value
	return nil
}

func (rn *runner) removeBalance(v views) error {
	key := rn.randKey()
	old, removed, err := v.balances.Remove(key)
	if err != nil {
		return err
	}
	expected, exists := rn.model.balances[key]
	if removed != exists || (exists && old != expected) {
		return fmt.Errorf("balances: remove of %d returned (%d, %t), expected (%d, %t)", key, old, removed, expected, exists)
	}
	delete(rn.model.balances, key)
	return nil
}

func (rn *runner) insertOwner(v views) error {
	key1 := rn.randKey()
	key2 := uint64(rn.randKey())
	if e, ok := rn.model.owners[key1]; ok && r.Intn(2) == 0 {
		key2 = e.key2
	}
	value := r.Uint32()

	e1, found1 := rn.model.owners[key1]
	back, found2 := rn.model.byKey2[key2]
	if !found1 && !found2 && len(rn.model.owners) >= rn.cfg.maxLength {
		return rn.removeOwner(v)
	}

	old, replaced, err := v.owners.Insert(key1, key2, value)

	var mismatch *unsize.DualKeyMismatchError
	switch {
	case found1 && found2 && back == key1:
		if err != nil {
			return err
		}
		if !replaced || old != e1.value {
			return fmt.Errorf("owners: replace of (%d, %d) returned (%d, %t), expected %d", key1, key2, old, replaced, e1.value)
		}
	case !found1 && !found2:
		if err != nil {
			return err
		}
		if replaced {
			return fmt.Errorf("owners: insert of new (%d, %d) replaced %d", key1, key2, old)
		}
	default:
		if !errors.As(err, &mismatch) {
			return fmt.Errorf("owners: insert of (%d, %d) expected a key mismatch, got %v", key1, key2, err)
		}
		return nil
	}

	rn.model.owners[key1] = ownerEntry{key2: key2, value: value}
	rn.model.byKey2[key2] = key1
	return nil
}

func (rn *runner) removeOwner(v views) error {
	if r.Intn(2) == 0 {
		key1 := rn.randKey()
		key2, value, removed, err := v.owners.RemoveByLeft(key1)
		if err != nil {
			return err
		}
		e, exists := rn.model.owners[key1]
		if removed != exists || (exists && (key2 != e.key2 || value != e.value)) {
			return fmt.Errorf("owners: remove by left %d returned (%d, %d, %t)", key1, key2, value, removed)
		}
		if exists {
			delete(rn.model.owners, key1)
			delete(rn.model.byKey2, e.key2)
		}
		return nil
	}

	key2 := uint64(rn.randKey())
	key1, value, removed, err := v.owners.RemoveByRight(key2)
	if err != nil {
		return err
	}
	back, exists := rn.model.byKey2[key2]
	if removed != exists || (exists && (key1 != back || value != rn.model.owners[back].value)) {
		return fmt.Errorf("owners: remove by right %d returned (%d, %d, %t)", key2, key1, value, removed)
	}
	if exists {
		delete(rn.model.owners, back)
		delete(rn.model.byKey2, key2)
	}
	return nil
}

func (rn *runner) updateState(v views) error {
	state := rn.model.state
	if r.Intn(3) == 0 {
		return rn.switchState(v)
	}

	switch state.Discriminant {
	case noteState:
		note, ok := noteVariant.Get(v.state)
		if !ok {
			return fmt.Errorf("state: expected a note")
		}
		current := state.Value.(string)
		if len(current) >= maxNoteChars {
			short := current[:r.Intn(len(current))]
			if err := note.Set(short); err != nil {
				return err
			}
			rn.model.state.Value = short
			return nil
		}
		suffix := randStr(r.Intn(8) + 1)
		if err := note.Append(suffix); err != nil {
			return err
		}
		rn.model.state.Value = current + suffix
		return nil

	case tagsState:
		tags, ok := tagsVariant.Get(v.state)
		if !ok {
			return fmt.Errorf("state: expected tags")
		}
		current := state.Value.([]uint16)
		if len(current) >= maxTags || (len(current) > 0 && r.Intn(3) == 0) {
			popped, _, err := tags.Pop()
			if err != nil {
				return err
			}
			if popped != current[len(current)-1] {
				return fmt.Errorf("state: popped tag %d, expected %d", popped, current[len(current)-1])
			}
			rn.model.state.Value = current[:len(current)-1]
			return nil
		}
		tag := uint16(r.Intn(1 << 16))
		if err := tags.Push(tag); err != nil {
			return err
		}
		rn.model.state.Value = append(current, tag)
		return nil

	default:
		return rn.switchState(v)
	}
}

func (rn *runner) switchState(v views) error {
	switch r.Intn(3) {
	case 0:
		if _, err := idleVariant.Set(v.state, unsize.DefaultInit{}); err != nil {
			return err
		}
		rn.model.state = unsize.EnumOwned[uint8]{Discriminant: idleState, Value: struct{}{}}
	case 1:
		note := randStr(r.Intn(maxNoteChars))
		if _, err := noteVariant.Set(v.state, note); err != nil {
			return err
		}
		rn.model.state = unsize.EnumOwned[uint8]{Discriminant: noteState, Value: note}
	default:
		tags := randTags(r.Intn(16))
		if _, err := tagsVariant.Set(v.state, tags); err != nil {
			return err
		}
		rn.model.state = unsize.EnumOwned[uint8]{Discriminant: tagsState, Value: tags}
	}
	return nil
}
