package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/model"
)

// Key prefixes. Runs are stored as JSON under run:<id>; claim:<claimID> and
// user:<userID>:<runID> are index entries pointing back to the run.
const (
	runPrefix   = "run:"
	claimPrefix = "claim:"
	userPrefix  = "user:"
)

// BadgerStore persists runs in an embedded BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *zap.Logger
}

// OpenBadger opens (or creates) the run store at the configured path. With
// InMemory set no files are written; used by tests.
func OpenBadger(cfg model.StoreConfig, log *zap.Logger) (*BadgerStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		path := expandHome(cfg.Path)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &BadgerStore{db: db, log: log}, nil
}

// Save persists the run and its claim/user index entries in one transaction
func (s *BadgerStore) Save(ctx context.Context, run *model.VerificationRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(runPrefix+run.RunID), data); err != nil {
			return err
		}
		for _, cr := range run.Claims {
			if err := txn.Set([]byte(claimPrefix+cr.Claim.ID), []byte(run.RunID)); err != nil {
				return err
			}
		}
		if run.UserID != "" {
			if err := txn.Set([]byte(userPrefix+run.UserID+":"+run.RunID), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID returns the run with the given id
func (s *BadgerStore) FindByID(ctx context.Context, runID string) (*model.VerificationRun, error) {
	var run model.VerificationRun

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runPrefix + runID))
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
		return nil, fmt.Errorf("find run: %w", err)
	}
	return &run, nil
}

// FindByClaim resolves the claim index and loads the owning run
func (s *BadgerStore) FindByClaim(ctx context.Context, claimID string) (*model.VerificationRun, error) {
	var runID string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(claimPrefix + claimID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			runID = string(val)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find claim index: %w", err)
	}

	return s.FindByID(ctx, runID)
}

// FindByUser scans the user index and loads each run
func (s *BadgerStore) FindByUser(ctx context.Context, userID string) ([]*model.VerificationRun, error) {
	var runIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(userPrefix + userID + ":")})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			runIDs = append(runIDs, strings.TrimPrefix(key, userPrefix+userID+":"))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan user index: %w", err)
	}

	runs := make([]*model.VerificationRun, 0, len(runIDs))
	for _, id := range runIDs {
		run, err := s.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // index entry outlived a deleted run
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Delete removes the run and its index entries
func (s *BadgerStore) Delete(ctx context.Context, runID string) error {
	run, err := s.FindByID(ctx, runID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(runPrefix + runID)); err != nil {
			return err
		}
		for _, cr := range run.Claims {
			if err := txn.Delete([]byte(claimPrefix + cr.Claim.ID)); err != nil {
				return err
			}
		}
		if run.UserID != "" {
			if err := txn.Delete([]byte(userPrefix + run.UserID + ":" + runID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
