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
// Package boltstorage persists account data in a bbolt database.
package boltstorage

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/starframe/unsize"
)

var accountsBucket = []byte("accounts")

// record is the stored form of one account.
type record struct {
	Data        []byte `msgpack:"d"`
	Fingerprint uint64 `msgpack:"f"`
	Version     uint64 `msgpack:"v"`
}

type Options struct {
	// Logger defaults to the root logger.
	Logger    log.Logger
	IsTesting bool
	Timeout   time.Duration
}

// BoltBaseStorage is a unsize.BaseStorage backed by a bbolt database.
type BoltBaseStorage struct {
	bdb *bbolt.DB
	log log.Logger

	bytesRetrieved   int
	bytesStored      int
	segmentsReturned map[unsize.Address]struct{}
	segmentsUpdated  map[unsize.Address]struct{}
	segmentsTouched  map[unsize.Address]struct{}
}

var _ unsize.BaseStorage = &BoltBaseStorage{}

// Open opens or creates the database at path.
func Open(path string, opt Options) (*BoltBaseStorage, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}

	bdb, err := bbolt.Open(path, 0o666, bopt)
	if err != nil {
		return nil, unsize.NewStorageError(fmt.Errorf("boltstorage: %w", err))
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, unsize.NewStorageError(fmt.Errorf("boltstorage: %w", err))
	}

	logger := opt.Logger
	if logger == nil {
		logger = log.Root()
	}

	s := &BoltBaseStorage{
		bdb: bdb,
		log: logger.New("module", "boltstorage", "path", path),
	}
	s.ResetReporter()
	s.log.Debug("opened account database")
	return s, nil
}

// Close closes the database.
func (s *BoltBaseStorage) Close() error {
	s.log.Debug("closing account database")
	return s.bdb.Close()
}

func (s *BoltBaseStorage) touch(address unsize.Address, updated bool) {
	s.segmentsTouched[address] = struct{}{}
	if updated {
		s.segmentsUpdated[address] = struct{}{}
	} else {
		s.segmentsReturned[address] = struct{}{}
	}
}

func decodeRecord(address unsize.Address, raw []byte) (record, error) {
	var rec record
	if err := msgpack.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return record{}, unsize.NewDecodingError(fmt.Errorf("account %s: %w", address, err))
	}
	if got := unsize.Fingerprint(rec.Data); got != rec.Fingerprint {
		return record{}, unsize.NewDecodingError(fmt.Errorf("account %s: fingerprint %x doesn't match data (%x)", address, rec.Fingerprint, got))
	}
	return rec, nil
}

func (s *BoltBaseStorage) Retrieve(address unsize.Address) ([]byte, bool, error) {
	var data []byte
	var found bool
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(accountsBucket).Get(address[:])
		if raw == nil {
			return nil
		}
		rec, err := decodeRecord(address, raw)
		if err != nil {
			return err
		}
		// raw is only valid inside the transaction.
		data = append([]byte(nil), rec.Data...)
		found = true
		return nil
	})
	if err != nil {
		var e unsize.Error
		if !errors.As(err, &e) {
			err = unsize.NewStorageError(err)
		}
		s.log.Error("failed to retrieve account", "address", address, "err", err)
		return nil, false, err
	}

	s.bytesRetrieved += len(data)
	s.touch(address, false)
	return data, found, nil
}

func (s *BoltBaseStorage) Store(address unsize.Address, data []byte) error {
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(accountsBucket)

		rec := record{Data: data, Fingerprint: unsize.Fingerprint(data)}
		if raw := b.Get(address[:]); raw != nil {
			prev, err := decodeRecord(address, raw)
			if err != nil {
				return err
			}
			rec.Version = prev.Version + 1
		}

		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetSortMapKeys(true)
		if err := enc.Encode(&rec); err != nil {
			return unsize.NewEncodingError(err)
		}
		return b.Put(address[:], buf.Bytes())
	})
	if err != nil {
		s.log.Error("failed to store account", "address", address, "err", err)
		return unsize.NewStorageError(err)
	}

	s.bytesStored += len(data)
	s.touch(address, true)
	s.log.Debug("stored account", "address", address, "size", len(data))
	return nil
}

func (s *BoltBaseStorage) Remove(address unsize.Address) error {
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(accountsBucket).Delete(address[:])
	})
	if err != nil {
		s.log.Error("failed to remove account", "address", address, "err", err)
		return unsize.NewStorageError(err)
	}
	s.touch(address, true)
	s.log.Debug("removed account", "address", address)
	return nil
}

// Version returns how many times the account at address was overwritten.
func (s *BoltBaseStorage) Version(address unsize.Address) (uint64, bool, error) {
	var version uint64
	var found bool
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(accountsBucket).Get(address[:])
		if raw == nil {
			return nil
		}
		rec, err := decodeRecord(address, raw)
		if err != nil {
			return err
		}
		version, found = rec.Version, true
		return nil
	})
	return version, found, err
}

func (s *BoltBaseStorage) SegmentCounts() int {
	var n int
	_ = s.bdb.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(accountsBucket).Stats().KeyN
		return nil
	})
	return n
}

func (s *BoltBaseStorage) Size() int {
	total := 0
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(accountsBucket).ForEach(func(k, v []byte) error {
			var address unsize.Address
			copy(address[:], k)
			rec, err := decodeRecord(address, v)
			if err != nil {
				return err
			}
			total += len(rec.Data)
			return nil
		})
	})
	if err != nil {
		s.log.Warn("failed to compute storage size", "err", err)
	}
	return total
}

func (s *BoltBaseStorage) BytesRetrieved() int {
	return s.bytesRetrieved
}

func (s *BoltBaseStorage) BytesStored() int {
	return s.bytesStored
}

func (s *BoltBaseStorage) SegmentsReturned() int {
	return len(s.segmentsReturned)
}

func (s *BoltBaseStorage) SegmentsUpdated() int {
	return len(s.segmentsUpdated)
}

func (s *BoltBaseStorage) SegmentsTouched() int {
	return len(s.segmentsTouched)
}

func (s *BoltBaseStorage) ResetReporter() {
	s.bytesStored = 0
	s.bytesRetrieved = 0
	s.segmentsReturned = make(map[unsize.Address]struct{})
	s.segmentsUpdated = make(map[unsize.Address]struct{})
	s.segmentsTouched = make(map[unsize.Address]struct{})
}
