// Package badgerstore provides an embedded Badger-backed token store.
//
// Key layout:
//
//	tok\x00<token>                          -> JSON token record
//	idx\x00<repoID>\x00<username>\x00<seq>  -> token
//
// The idx keyspace is the secondary index over (repoID, username); the
// sequence suffix preserves insertion order and keeps index keys unique
// across reissues for the same pair. Range queries iterate the idx
// prefix in pages, resuming from a continuation key.
package badgerstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/repovault/repovault-go/internal/core/domain"
	"github.com/repovault/repovault-go/internal/storage"
)

const (
	// DefaultPageSize bounds how many index entries one iterator pass reads.
	DefaultPageSize = 100

	// gcDiscardRatio triggers value log GC when this share of a log file
	// is stale.
	gcDiscardRatio = 0.5
)

var (
	prefixRecord = []byte("tok\x00")
	prefixIndex  = []byte("idx\x00")
	sep          = []byte{0x00}
)

// Config configures the Badger store.
type Config struct {
	// Dir is the storage directory.
	Dir string

	// PageSize is the range-query page size. Defaults to DefaultPageSize.
	PageSize int

	// SyncWrites enables fsync after each write.
	SyncWrites bool

	// GCInterval is the interval between value log GC runs.
	// Zero disables the GC loop.
	GCInterval time.Duration

	// PageObserver, when set, receives the number of pages each
	// completed range query traversed.
	PageObserver func(pages int)
}

// DefaultConfig returns the default store configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		PageSize:   DefaultPageSize,
		SyncWrites: true,
		GCInterval: 10 * time.Minute,
	}
}

// Store implements storage.TokenStore on an embedded Badger DB.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	cfg    Config
	logger *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// storedRecord is the persisted value under a tok key. The sequence is
// kept so a point delete can reconstruct the record's index key.
type storedRecord struct {
	domain.TokenRecord
	Seq uint64 `json:"seq"`
}

// New opens the store at cfg.Dir.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrStore.WithDetails("badger: dir is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrStore.WithCause(err)
	}

	seq, err := db.GetSequence([]byte("seq\x00tokens"), 128)
	if err != nil {
		db.Close()
		return nil, domain.ErrStore.WithCause(err)
	}

	s := &Store{
		db:     db,
		seq:    seq,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.GCInterval > 0 {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}

	logger.Info("badger token store opened", "dir", cfg.Dir, "sync_writes", cfg.SyncWrites)
	return s, nil
}

func recordKey(token string) []byte {
	return append(append([]byte{}, prefixRecord...), token...)
}

func indexKey(repoID, username string, seq uint64) []byte {
	key := append(append([]byte{}, prefixIndex...), repoID...)
	key = append(key, sep...)
	key = append(key, username...)
	key = append(key, sep...)
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	return append(key, seqBuf[:]...)
}

// indexPrefix returns the iteration prefix for a repo, or for an exact
// (repo, username) pair when username is non-empty.
func indexPrefix(repoID, username string) []byte {
	prefix := append(append([]byte{}, prefixIndex...), repoID...)
	prefix = append(prefix, sep...)
	if username != "" {
		prefix = append(prefix, username...)
		prefix = append(prefix, sep...)
	}
	return prefix
}

// Put upserts a record. A reissued token value replaces its previous
// record and index entry in one transaction.
func (s *Store) Put(ctx context.Context, record *domain.TokenRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	seq, err := s.seq.Next()
	if err != nil {
		return domain.ErrStore.WithCause(err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := recordKey(record.Token)

		// Drop the old index entry on overwrite.
		if item, err := txn.Get(key); err == nil {
			var old storedRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &old)
			}); err != nil {
				return err
			}
			if err := txn.Delete(indexKey(old.RepoID, old.Username, old.Seq)); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		stored := storedRecord{TokenRecord: *record, Seq: seq}
		value, err := json.Marshal(&stored)
		if err != nil {
			return err
		}
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(record.RepoID, record.Username, seq), []byte(record.Token))
	})
	if err != nil {
		s.logger.Error("badger put failed", "repo_id", record.RepoID, "error", err)
		return domain.ErrStore.WithCause(err)
	}
	return nil
}

// QueryByRepo iterates the index prefix to completion in pages,
// resuming each page from the previous page's last key.
func (s *Store) QueryByRepo(ctx context.Context, repoID, username string) ([]*domain.TokenRecord, error) {
	prefix := indexPrefix(repoID, username)

	pages := 0
	fetch := func(_ context.Context, marker *[]byte) ([]*domain.TokenRecord, *[]byte, error) {
		pages++
		var (
			page    []*domain.TokenRecord
			lastKey []byte
			more    bool
		)

		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			if marker != nil {
				it.Seek(*marker)
				if it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), *marker) {
					it.Next() // resume after the marker, not at it
				}
			} else {
				it.Rewind()
			}

			for ; it.ValidForPrefix(prefix); it.Next() {
				if len(page) >= s.cfg.PageSize {
					more = true
					return nil
				}

				token, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				item, err := txn.Get(recordKey(string(token)))
				if err != nil {
					if errors.Is(err, badger.ErrKeyNotFound) {
						continue // index entry orphaned by a crash mid-delete
					}
					return err
				}

				var stored storedRecord
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &stored)
				}); err != nil {
					return err
				}

				page = append(page, stored.TokenRecord.Clone())
				lastKey = it.Item().KeyCopy(nil)
			}
			return nil
		})
		if err != nil {
			s.logger.Error("badger query failed", "repo_id", repoID, "error", err)
			return nil, nil, domain.ErrStore.WithCause(err)
		}

		if more {
			return page, &lastKey, nil
		}
		return page, nil, nil
	}

	records, err := storage.QueryPages(ctx, fetch)
	if err != nil {
		return nil, err
	}
	if s.cfg.PageObserver != nil {
		s.cfg.PageObserver(pages)
	}
	return records, nil
}

// DeleteByToken removes a record and its index entry. Absent tokens
// report success.
func (s *Store) DeleteByToken(ctx context.Context, token string) (bool, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := recordKey(token)

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var stored storedRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}

		if err := txn.Delete(indexKey(stored.RepoID, stored.Username, stored.Seq)); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		s.logger.Error("badger delete failed", "token", domain.MaskToken(token), "error", err)
		return false, domain.ErrStore.WithCause(err)
	}
	return true, nil
}

// Close releases the sequence and shuts down the DB and GC loop.
func (s *Store) Close() error {
	if s.cfg.GCInterval > 0 {
		close(s.stopCh)
		<-s.doneCh
	}
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("badger sequence release failed", "error", err)
	}
	return s.db.Close()
}

// gcLoop periodically reclaims stale value log space.
func (s *Store) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(gcDiscardRatio); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.logger.Warn("badger gc failed", "error", err)
					}
					break
				}
			}
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

var _ storage.TokenStore = (*Store)(nil)
