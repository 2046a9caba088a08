package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var runPrefix = []byte("run/")

// BadgerStore keeps runs in an embedded Badger database.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a database in dir. An empty dir opens
// an in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func runKey(id string) []byte {
	return append(append([]byte{}, runPrefix...), id...)
}

func (s *BadgerStore) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &run)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

func (s *BadgerStore) Put(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(run.ID), data)
	})
}

func (s *BadgerStore) List(ctx context.Context, opts ListOptions) ([]*Run, error) {
	var runs []*Run
	err := s.scan(func(run *Run) {
		if opts.match(run) {
			runs = append(runs, run)
		}
	})
	if err != nil {
		return nil, err
	}
	sortRecent(runs)
	if len(runs) > opts.limit() {
		runs = runs[:opts.limit()]
	}
	return runs, nil
}

// scan visits every decodable run.
func (s *BadgerStore) scan(fn func(*Run)) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   64,
			Prefix:         runPrefix,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var run Run
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			})
			if err != nil {
				continue
			}
			fn(&run)
		}
		return nil
	})
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(runKey(id))
	})
}

func (s *BadgerStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var stale []string
	if err := s.scan(func(run *Run) {
		if run.UpdatedAt.Before(cutoff) {
			stale = append(stale, run.ID)
		}
	}); err != nil {
		return 0, err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, id := range stale {
			if err := txn.Delete(runKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
