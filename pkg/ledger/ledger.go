// Package ledger persists a record of fully staged model versions in an
// embedded BadgerDB database.
//
// The ledger is how the serving runtime can answer "do I already have a
// usable local copy of this version?" after a failed re-fetch: the storage
// layer only reports per-version success or failure, and the ledger keeps
// the last known-good staging path for fallback.
//
// Key schema (prefixed, range-scannable):
//
//	v:<model>:<version padded to 20 digits>  ->  Entry (JSON)
//
// Zero-padding the version keeps range scans over one model in numeric
// order. Values are JSON for debuggability; the write volume here is a few
// records per model reload, so compactness does not matter.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrEntryNotFound indicates no staged record exists for the requested
// model version.
var ErrEntryNotFound = errors.New("ledger entry not found")

// Entry records one fully staged model version.
type Entry struct {
	// Model is the configured model name.
	Model string `json:"model"`

	// Version is the staged version number.
	Version int64 `json:"version"`

	// LocalPath is the staging directory handed to the inference engine.
	LocalPath string `json:"local_path"`

	// Bytes is the total size of the staged tree.
	Bytes int64 `json:"bytes"`

	// StagedAt is when the fetch completed.
	StagedAt time.Time `json:"staged_at"`
}

// Ledger is a BadgerDB-backed staged-version record store. It is safe for
// concurrent use; Badger provides transactional isolation.
type Ledger struct {
	db *badger.DB
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database at %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database. The ledger must not be used afterwards.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func entryKey(model string, version int64) []byte {
	return fmt.Appendf(nil, "v:%s:%020d", model, version)
}

func modelPrefix(model string) []byte {
	return fmt.Appendf(nil, "v:%s:", model)
}

// Record upserts the staged record for a model version.
func (l *Ledger) Record(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}

	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.Model, entry.Version), value)
	})
	if err != nil {
		return fmt.Errorf("failed to record %s version %d: %w", entry.Model, entry.Version, err)
	}
	return nil
}

// Get returns the staged record for a model version, or ErrEntryNotFound.
func (l *Ledger) Get(ctx context.Context, model string, version int64) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry Entry
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(model, version))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%s version %d: %w", model, version, ErrEntryNotFound)
			}
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns all staged records for a model in ascending version order.
func (l *Ledger) List(ctx context.Context, model string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []Entry
	err := l.db.View(func(txn *badger.Txn) error {
		prefix := modelPrefix(model)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry Entry
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for %s: %w", model, err)
	}
	return entries, nil
}

// Remove deletes the staged record for a model version. Removing a missing
// record is not an error.
func (l *Ledger) Remove(ctx context.Context, model string, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(model, version))
	})
	if err != nil {
		return fmt.Errorf("failed to remove %s version %d: %w", model, version, err)
	}
	return nil
}
