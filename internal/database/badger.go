package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
)

var (
	stateKey   = []byte("ledger/state")
	versionKey = []byte("ledger/version")
)

// BadgerStore keeps the ledger snapshot in an embedded badger database
type BadgerStore struct {
	db     *badger.DB
	logger logrus.FieldLogger
}

// OpenBadger opens (or creates) the database in dir.
func OpenBadger(dir string, logger logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Load(ctx context.Context) (*ledger.State, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to decode ledger snapshot: %w", err)
	}
	return &state, nil
}

func (s *BadgerStore) Save(ctx context.Context, state *ledger.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if stored := binary.BigEndian.Uint64(raw); stored >= state.Version {
				return fmt.Errorf("%w: stored %d, saving %d", ErrStaleSnapshot, stored, state.Version)
			}
		}

		version := make([]byte, 8)
		binary.BigEndian.PutUint64(version, state.Version)
		if err := txn.Set(versionKey, version); err != nil {
			return err
		}
		return txn.Set(stateKey, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to save ledger snapshot: %w", err)
	}
	return nil
}

// RunValueLogGC rewrites value log files until badger reports nothing left
// to collect. It returns the number of files rewritten.
func (s *BadgerStore) RunValueLogGC(discardRatio float64) int {
	rewritten := 0
	for {
		if err := s.db.RunValueLogGC(discardRatio); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.WithError(err).Warn("Badger value log GC stopped")
			}
			return rewritten
		}
		rewritten++
	}
}
