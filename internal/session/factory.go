// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package session

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// StoreType selects the session storage backend.
type StoreType string

const (
	// StoreMemory keeps sessions in memory (not persistent).
	StoreMemory StoreType = "memory"

	// StoreBadger persists sessions in BadgerDB.
	StoreBadger StoreType = "badger"
)

// StoreFactory creates session stores based on configuration.
type StoreFactory struct {
	db *badger.DB
}

// NewStoreFactory creates a store factory. For the badger backend it
// opens a BadgerDB at the given path; the memory backend opens nothing.
func NewStoreFactory(storeType StoreType, path string) (*StoreFactory, error) {
	factory := &StoreFactory{}

	if storeType == StoreBadger {
		opts := badger.DefaultOptions(path)
		opts.Logger = nil // Suppress BadgerDB logs

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		factory.db = db
	}

	return factory, nil
}

// CreateStore creates a Store for the configured backend.
func (f *StoreFactory) CreateStore() Store {
	if f.db != nil {
		return NewBadgerStore(f.db)
	}
	return NewMemoryStore()
}

// Close closes the underlying BadgerDB if one was opened.
func (f *StoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
