// Copyright 2025 Certen Protocol
//
// RecoveryDB adapts a CometBFT dbm.DB into the RecoveryStore surface
// ConstraintApp restores its last committed height/app-hash from, so the
// harness can swap the underlying engine (memdb, goleveldb, badger)
// without touching recovery logic.

package abci

import (
	dbm "github.com/cometbft/cometbft-db"
)

// RecoveryDB wraps a CometBFT dbm.DB as a RecoveryStore.
type RecoveryDB struct {
	db dbm.DB
}

// NewRecoveryDB wraps db, which may be nil (Get always misses, Set is a no-op).
func NewRecoveryDB(db dbm.DB) *RecoveryDB {
	return &RecoveryDB{db: db}
}

// Get returns the value stored at key, or nil if key is absent.
func (r *RecoveryDB) Get(key []byte) ([]byte, error) {
	if r.db == nil {
		return nil, nil
	}
	return r.db.Get(key)
}

// Set durably writes key/value, using SetSync so a crash right after
// commit cannot lose the write.
func (r *RecoveryDB) Set(key, value []byte) error {
	if r.db == nil {
		return nil
	}
	return r.db.SetSync(key, value)
}
