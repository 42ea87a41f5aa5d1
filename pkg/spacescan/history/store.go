// Package history keeps summaries of past scan sessions in a badger store.
package history

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var (
	// ErrNotFound is returned when no entry matches an id.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguous is returned when an id prefix matches several entries.
	ErrAmbiguous = errors.New("history id prefix is ambiguous")

	// ErrMissingID is returned when storing an entry without an id.
	ErrMissingID = errors.New("history entry has no id")
)

// Store wraps Badger for history operations.
type Store struct {
	db *badger.DB
}

// Open opens or creates a history store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores an entry, replacing any entry with the same id.
func (s *Store) Put(e *Entry) error {
	if e.ID == "" {
		return ErrMissingID
	}
	value, err := e.Encode()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(e.ID), value)
	})
}

// Get returns the entry with the exact id.
func (s *Store) Get(id string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Find returns the single entry whose id starts with prefix.
func (s *Store) Find(prefix string) (*Entry, error) {
	if prefix == "" {
		return nil, ErrNotFound
	}
	if e, err := s.Get(prefix); err == nil {
		return e, nil
	}

	var matches []*Entry
	err := s.iterate(keyPrefix+prefix, func(e *Entry) {
		matches = append(matches, e)
	})
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguous, prefix, strings.Join(ids, ", "))
	}
}

// List returns entries newest first. A limit of zero or less returns all.
func (s *Store) List(limit int) ([]*Entry, error) {
	entries := []*Entry{}
	if err := s.iterate(keyPrefix, func(e *Entry) {
		entries = append(entries, e)
	}); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartedAt.After(entries[j].StartedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Delete removes an entry. Deleting a missing id is not an error.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(makeKey(id))
	})
}

// Clean removes entries that started before cutoff and returns how many
// were removed.
func (s *Store) Clean(cutoff time.Time) (int, error) {
	var stale [][]byte
	if err := s.iterate(keyPrefix, func(e *Entry) {
		if e.StartedAt.Before(cutoff) {
			stale = append(stale, makeKey(e.ID))
		}
	}); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (s *Store) iterate(prefix string, fn func(*Entry)) error {
	p := []byte(prefix)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var e Entry
			if err := it.Item().Value(e.Decode); err != nil {
				return err
			}
			fn(&e)
		}
		return nil
	})
}
