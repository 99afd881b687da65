// Package kv persists build bookkeeping and produced playback scripts in
// BadgerDB. Both kinds of value are short-lived and expire independently,
// which maps directly onto badger's per-key TTLs. A same-period marker key
// written in the same transaction as each script enforces at-most-one
// script per (user, date, kind) when two builds race.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/ishaan-bit/reverie/internal/recap"
)

// Key prefixes.
const (
	bookkeepingKeyPrefix = "bk:"
	scriptKeyPrefix      = "script:"
	builtKeyPrefix       = "built:"
)

// ErrScriptNotFound is returned when a script id is unknown or expired.
var ErrScriptNotFound = errors.New("script not found")

// Options tunes expiries. Zero fields fall back to defaults.
type Options struct {
	// BookkeepingTTL bounds how long per-user build bookkeeping survives.
	BookkeepingTTL time.Duration

	// MarkerTTL bounds the same-period build markers. It only needs to
	// outlive the period it guards.
	MarkerTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.BookkeepingTTL == 0 {
		o.BookkeepingTTL = 14 * 24 * time.Hour
	}
	if o.MarkerTTL == 0 {
		o.MarkerTTL = 48 * time.Hour
	}
	return o
}

// Store is the badger-backed bookkeeping and script store.
type Store struct {
	db   *badger.DB
	opts Options
}

// Open opens (or creates) the badger store at dir.
func Open(dir string, opts Options) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, opts: opts.withDefaults()}, nil
}

// OpenMemory opens an in-memory store for testing.
func OpenMemory(opts Options) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger memory: %w", err)
	}
	return &Store{db: db, opts: opts.withDefaults()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetBookkeeping reads a user's build bookkeeping. Returns (nil, nil) when
// the user has no recorded build or it has expired.
func (s *Store) GetBookkeeping(ctx context.Context, userID string) (*recap.Bookkeeping, error) {
	var bk recap.Bookkeeping

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bookkeepingKeyPrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &bk)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookkeeping for %s: %w", userID, err)
	}
	return &bk, nil
}

// PutBookkeeping overwrites a user's build bookkeeping. Single write, no
// partial updates.
func (s *Store) PutBookkeeping(ctx context.Context, userID string, bk recap.Bookkeeping) error {
	data, err := json.Marshal(bk)
	if err != nil {
		return fmt.Errorf("marshal bookkeeping: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(bookkeepingKeyPrefix+userID), data).
			WithTTL(s.opts.BookkeepingTTL)
		return txn.SetEntry(entry)
	})
}

// PutScript stores a produced script with its own expiry. The same
// transaction sets a (user, date, kind) marker; when the marker already
// exists another build for the period won the race and the caller gets
// recap.ErrAlreadyBuilt.
func (s *Store) PutScript(ctx context.Context, script *recap.Script) error {
	data, err := json.Marshal(script)
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}

	markerKey := []byte(builtKeyPrefix + script.UserID + ":" +
		script.CreatedAt.Format("2006-01-02") + ":" + string(script.Kind))

	ttl := time.Until(script.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("script %s already expired at %s", script.ID, script.ExpiresAt)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(markerKey)
		if err == nil {
			return recap.ErrAlreadyBuilt
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check build marker: %w", err)
		}

		entry := badger.NewEntry([]byte(scriptKeyPrefix+script.ID), data).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set script: %w", err)
		}

		marker := badger.NewEntry(markerKey, []byte(script.ID)).WithTTL(s.opts.MarkerTTL)
		if err := txn.SetEntry(marker); err != nil {
			return fmt.Errorf("set build marker: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, recap.ErrAlreadyBuilt) {
			return recap.ErrAlreadyBuilt
		}
		return fmt.Errorf("put script %s: %w", script.ID, err)
	}
	return nil
}

// GetScript fetches a stored script by id for the playback client.
func (s *Store) GetScript(ctx context.Context, id string) (*recap.Script, error) {
	var script recap.Script

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(scriptKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &script)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrScriptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get script %s: %w", id, err)
	}
	return &script, nil
}
