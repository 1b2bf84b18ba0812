// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package txn

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/database"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/geth/common"
)

// State is the lifecycle position of a submitted transaction.
type State uint8

const (
	StateSubmitted State = iota
	StatePending
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

var ErrTerminal = errors.New("transaction already reached a terminal state")

// Record is the journal entry of one transaction.
type Record struct {
	Hash        common.Hash
	Contract    common.Address
	Method      string
	State       State
	SubmittedAt uint64
	BlockNumber uint64
	Reason      string
}

func (r *Record) SubmittedTime() time.Time {
	return time.Unix(int64(r.SubmittedAt), 0)
}

// Journal persists transaction records by hash.
type Journal struct {
	lock sync.Mutex
	db   database.Database
}

func NewJournal(db database.Database) *Journal {
	return &Journal{db: db}
}

// Put stores r, refusing to overwrite a terminal record or to move a
// record backwards.
func (j *Journal) Put(r *Record) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	existing, err := j.get(r.Hash)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return err
	case existing.State.Terminal():
		return fmt.Errorf("%w: %s is %s", ErrTerminal, r.Hash, existing.State)
	case r.State < existing.State:
		return fmt.Errorf("invalid transition %s -> %s for %s", existing.State, r.State, r.Hash)
	}

	b, err := fhevm.Codec.Marshal(r)
	if err != nil {
		return err
	}
	return j.db.Put(r.Hash.Bytes(), b)
}

// Delete drops the record for hash unless it is terminal.
func (j *Journal) Delete(hash common.Hash) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	existing, err := j.get(hash)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.State.Terminal():
		return fmt.Errorf("%w: %s is %s", ErrTerminal, hash, existing.State)
	}
	return j.db.Delete(hash.Bytes())
}

// Get returns the record for hash or database.ErrNotFound.
func (j *Journal) Get(hash common.Hash) (*Record, error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.get(hash)
}

func (j *Journal) get(hash common.Hash) (*Record, error) {
	b, err := j.db.Get(hash.Bytes())
	if err != nil {
		return nil, err
	}
	var r Record
	if _, err := fhevm.Codec.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("corrupt journal entry %s: %w", hash, err)
	}
	return &r, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
