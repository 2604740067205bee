// Package rendercache stores encoded renders on disk, keyed by a digest of
// everything that determines the image.
package rendercache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/dgraph-io/badger"
	"github.com/golang/glog"
	"golang.org/x/xerrors"
)

const keyPrefix = "render/"

// Cache is an on-disk map from render keys to encoded images
type Cache struct {
	db *badger.DB
}

// Open opens (creating if needed) the cache stored in dir
func Open(dir string) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(glogLogger{}))
	if err != nil {
		return nil, xerrors.Errorf("while opening badger kv dir %q: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close flushes and closes the underlying database
func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return xerrors.Errorf("while closing database: %w", err)
	}
	return nil
}

// Key digests the parts of a render request into a cache key. Parts are
// length-prefixed so that ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) []byte {
	h := sha256.New()
	for _, part := range parts {
		var length [8]byte
		binary.LittleEndian.PutUint64(length[:], uint64(len(part)))
		h.Write(length[:])
		h.Write([]byte(part))
	}
	return []byte(keyPrefix + hex.EncodeToString(h.Sum(nil)))
}

// Get returns the image stored under key. found is false on a miss.
func (c *Cache) Get(key []byte) (data []byte, found bool, err error) {
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if xerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.Errorf("while reading cache entry %s: %w", shortKey(key), err)
	}
	return data, true, nil
}

// Put stores data under key, replacing any previous entry
func (c *Cache) Put(key, data []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return xerrors.Errorf("while writing cache entry %s: %w", shortKey(key), err)
	}
	return nil
}

func shortKey(key []byte) string {
	s := strings.TrimPrefix(string(key), keyPrefix)
	if len(s) > 12 {
		s = s[:12]
	}
	return s
}

// glogLogger routes badger's internal logging to glog; chatty levels are verbose-only
type glogLogger struct{}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.Errorf("badger: "+format, args...)
}

func (glogLogger) Warningf(format string, args ...interface{}) {
	glog.Warningf("badger: "+format, args...)
}

func (glogLogger) Infof(format string, args ...interface{}) {
	glog.V(2).Infof("badger: "+format, args...)
}

func (glogLogger) Debugf(format string, args ...interface{}) {
	glog.V(3).Infof("badger: "+format, args...)
}
