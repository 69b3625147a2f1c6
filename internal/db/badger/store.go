// Package badger implements the cache store on an embedded BadgerDB, for
// single-node deployments and local development without Redis.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Key namespaces. Set members live under setPrefix + key + setSep + member.
const (
	kvPrefix  = "k:"
	setPrefix = "s:"
	setSep    = "\x00"
)

// Config holds BadgerDB settings. An empty Path opens an in-memory store.
type Config struct {
	Path   string
	Logger *zap.Logger
}

// Store implements db.Store on BadgerDB using native entry TTLs.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// zapLogger adapts zap to badger.Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

var _ badger.Logger = (*zapLogger)(nil)

func (l *zapLogger) Errorf(msg string, args ...any)   { l.s.Errorf(msg, args...) }
func (l *zapLogger) Warningf(msg string, args ...any) { l.s.Warnf(msg, args...) }
func (l *zapLogger) Infof(msg string, args ...any)    { l.s.Debugf(msg, args...) }
func (l *zapLogger) Debugf(msg string, args ...any)   { l.s.Debugf(msg, args...) }

// NewStore opens a BadgerDB store. The directory is created if missing.
func NewStore(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = &zapLogger{s: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb, logger: logger}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// WaitForReady returns immediately: an embedded store is ready once opened.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close closes the database.
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close badger store", zap.Error(err))
	}
}

// RunGC runs value log garbage collection every interval until ctx is done.
// Only useful for on-disk stores.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
						s.logger.Warn("Badger value log GC failed", zap.Error(err))
					}
					break
				}
			}
		}
	}
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(kvKey(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return val, nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(kvKey(key), value).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes plain keys and sets with the given names.
func (s *Store) Del(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(kvKey(k)); err != nil {
				return err
			}
			members, err := collectKeys(txn, setKeyPrefix(k))
			if err != nil {
				return err
			}
			for _, m := range members {
				if err := txn.Delete(m); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// SAdd adds members, each expiring ttl from now. Existing members keep their
// own expiry, so the cost of an add does not grow with the set.
func (s *Store) SAdd(_ context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.SetEntry(badger.NewEntry(setMemberKey(key, m), nil).WithTTL(ttl)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SMembers returns the unexpired members of a set.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	prefix := setKeyPrefix(key)
	var members []string
	err := s.db.View(func(txn *badger.Txn) error {
		keys, err := collectKeys(txn, prefix)
		if err != nil {
			return err
		}
		for _, k := range keys {
			members = append(members, string(k[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}

func collectKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := txn.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}

func kvKey(key string) []byte { return []byte(kvPrefix + key) }

func setKeyPrefix(key string) []byte { return []byte(setPrefix + key + setSep) }

func setMemberKey(key, member string) []byte { return []byte(setPrefix + key + setSep + member) }
