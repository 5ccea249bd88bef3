package aggregate

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/logger"
)

// BadgerConfig configures a disk-backed buffer.
type BadgerConfig struct {
	// Path is the badger directory. Empty selects a temporary directory,
	// removed again on Close.
	Path string

	// InMemory keeps the LSM tree in memory. Used in tests.
	InMemory bool

	Logger *zap.SugaredLogger
}

// BadgerBuffer spills counts to a badger LSM tree, which iterates keys in
// byte order. Keys encode (source, type, target) so that byte order equals
// Key order.
type BadgerBuffer struct {
	db      *badger.DB
	tempDir string
	n       int
}

type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// OpenBadgerBuffer opens a buffer per cfg.
func OpenBadgerBuffer(cfg BadgerConfig) (*BadgerBuffer, error) {
	b := &BadgerBuffer{}

	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.Path == "":
		dir, err := os.MkdirTemp("", "globi-aggregate-*")
		if err != nil {
			return nil, errors.Wrap(err, "failed to create buffer directory")
		}
		b.tempDir = dir
		opts = badger.DefaultOptions(dir)
	default:
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.Wrapf(err, "failed to create buffer directory %s", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(false).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.OrNop(cfg.Logger).Named("badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		b.removeTemp()
		return nil, errors.Wrap(err, "failed to open badger buffer")
	}
	b.db = db
	return b, nil
}

func encodeKey(k Key) []byte {
	buf := make([]byte, 0, 8+len(k.Type)+1+8)
	buf = binary.BigEndian.AppendUint64(buf, uint64(k.Source))
	buf = append(buf, k.Type...)
	buf = append(buf, 0)
	return binary.BigEndian.AppendUint64(buf, uint64(k.Target))
}

func decodeKey(raw []byte) (Key, error) {
	if len(raw) < 17 || raw[len(raw)-9] != 0 {
		return Key{}, errors.Newf("malformed buffer key %x", raw)
	}
	return Key{
		Source: int64(binary.BigEndian.Uint64(raw[:8])),
		Type:   string(raw[8 : len(raw)-9]),
		Target: int64(binary.BigEndian.Uint64(raw[len(raw)-8:])),
	}, nil
}

func (b *BadgerBuffer) Increment(k Key, delta int64) error {
	key := encodeKey(k)
	return b.db.Update(func(txn *badger.Txn) error {
		var count uint64
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			b.n++
		case err != nil:
			return errors.Wrap(err, "buffer read")
		default:
			if err := item.Value(func(val []byte) error {
				count = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return errors.Wrap(err, "buffer read")
			}
		}
		count += uint64(delta)
		return txn.Set(key, binary.BigEndian.AppendUint64(nil, count))
	})
}

func (b *BadgerBuffer) Each(fn func(Key, int64) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k, err := decodeKey(item.Key())
			if err != nil {
				return err
			}
			var count int64
			if err := item.Value(func(val []byte) error {
				count = int64(binary.BigEndian.Uint64(val))
				return nil
			}); err != nil {
				return errors.Wrap(err, "buffer read")
			}
			if err := fn(k, count); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len counts distinct keys added through this handle.
func (b *BadgerBuffer) Len() int {
	return b.n
}

func (b *BadgerBuffer) Close() error {
	err := b.db.Close()
	b.removeTemp()
	if err != nil {
		return errors.Wrap(err, "failed to close badger buffer")
	}
	return nil
}

func (b *BadgerBuffer) removeTemp() {
	if b.tempDir != "" {
		_ = os.RemoveAll(b.tempDir)
	}
}

func (b *BadgerBuffer) String() string {
	return fmt.Sprintf("badger buffer (%d keys)", b.n)
}

var _ Buffer = (*BadgerBuffer)(nil)
