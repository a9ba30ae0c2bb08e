package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const snapshotPrefix = "snap/"

// BadgerStore persists snapshot history in BadgerDB. Values are
// zstd-compressed JSON; keys are "snap/<location>/<big-endian unix nanos>" so
// a prefix scan walks one location in time order.
type BadgerStore struct {
	db         *badger.DB
	encoder    *zstd.Encoder
	decoder    *zstd.Decoder
	maxHistory int
	maxAge     time.Duration
	logger     *zap.Logger
}

// BadgerConfig holds BadgerStore settings. An empty Path opens an in-memory
// database.
type BadgerConfig struct {
	Path       string
	MaxHistory int
	MaxAge     time.Duration
}

// NewBadgerStore opens (or creates) the database at cfg.Path.
func NewBadgerStore(cfg BadgerConfig, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &BadgerStore{
		db:         db,
		encoder:    encoder,
		decoder:    decoder,
		maxHistory: cfg.MaxHistory,
		maxAge:     cfg.MaxAge,
		logger:     logger.Named("badger"),
	}, nil
}

func locationPrefix(loc weather.Location) []byte {
	return []byte(snapshotPrefix + loc.Key() + "/")
}

func snapshotKey(loc weather.Location, ts time.Time) []byte {
	key := locationPrefix(loc)
	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], uint64(ts.UnixNano()))
	return append(key, stamp[:]...)
}

// SaveSnapshot writes the snapshot with the configured TTL and prunes the
// oldest entries beyond maxHistory.
func (s *BadgerStore) SaveSnapshot(loc weather.Location, snapshot weather.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	value := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(snapshotKey(loc, snapshot.GeneratedAt), value)
		if s.maxAge > 0 {
			entry = entry.WithTTL(s.maxAge)
		}
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		if s.maxHistory <= 0 {
			return nil
		}
		return s.prune(txn, loc)
	})
}

func (s *BadgerStore) prune(txn *badger.Txn, loc weather.Location) error {
	prefix := locationPrefix(loc)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true

	it := txn.NewIterator(opts)
	var stale [][]byte
	n := 0
	for it.Seek(append(append([]byte{}, prefix...), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
		n++
		if n > s.maxHistory {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
	}
	it.Close()

	for _, k := range stale {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	if len(stale) > 0 {
		s.logger.Debug("pruned snapshots", zap.String("location", loc.Key()), zap.Int("count", len(stale)))
	}
	return nil
}

// GetLatest returns the newest stored snapshot for loc.
func (s *BadgerStore) GetLatest(loc weather.Location) (weather.Snapshot, error) {
	prefix := locationPrefix(loc)
	var snap weather.Snapshot
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(append([]byte{}, prefix...), 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		found = true
		return s.decode(val, &snap)
	})
	if err != nil {
		return weather.Snapshot{}, err
	}
	if !found {
		return weather.Snapshot{}, fmt.Errorf("%w: no snapshot for %s", weather.ErrNotFound, loc.Key())
	}
	return snap, nil
}

// GetRange returns snapshots generated within [from, to] in time order.
func (s *BadgerStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Snapshot, error) {
	prefix := locationPrefix(loc)
	upper := snapshotKey(loc, to)
	var result []weather.Snapshot

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(snapshotKey(loc, from)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key(), upper) > 0 {
				break
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var snap weather.Snapshot
			if err := s.decode(val, &snap); err != nil {
				return err
			}
			result = append(result, snap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: no snapshot for %s in range", weather.ErrNotFound, loc.Key())
	}
	return result, nil
}

func (s *BadgerStore) decode(val []byte, snap *weather.Snapshot) error {
	raw, err := s.decoder.DecodeAll(val, nil)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}
