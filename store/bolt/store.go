/*
Package bolt provides a persistent CommitKVStore on top of a bbolt
database file.

All application data lives in a single bucket. Written cache wraps are
kept in memory until Commit, which stores them together with the version
counters in one bbolt transaction. A crash before Commit loses the
uncommitted writes and never leaves data with a stale version.
*/
package bolt

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	bolt "go.etcd.io/bbolt"
)

var (
	dataBucket = []byte("data")
	metaBucket = []byte("meta")
	versionKey = []byte("version")
	writtenKey = []byte("written")
)

// DefaultOpenTimeout is how long Open waits for the file lock held by
// another process.
const DefaultOpenTimeout = time.Second

// Store is a CommitKVStore backed by bbolt. Reads see the committed data
// on disk overlaid with the writes pending for the next commit.
type Store struct {
	db      *bolt.DB
	pending *batch
	working store.BTreeCacheWrap
	latest  store.CommitID
}

var (
	_ store.CommitKVStore    = (*Store)(nil)
	_ store.CacheableKVStore = (*Store)(nil)
)

// Open opens or creates the database file at path, creating missing
// directories, and loads the latest version.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: DefaultOpenTimeout})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %s: %s", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{dataBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create buckets: %s", err)
	}
	pending := &batch{}
	s := &Store{
		db:      db,
		pending: pending,
		working: store.NewBTreeCacheWrap(disk{db: db}, pending, nil),
	}
	if err := s.LoadLatestVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database file. Uncommitted writes are lost.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Get returns the value stored under the key or nil.
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.working.Get(key)
}

// Has returns true if a value is stored under the key.
func (s *Store) Has(key []byte) (bool, error) {
	return s.working.Has(key)
}

// Set stages a write for the next commit.
func (s *Store) Set(key, value []byte) error {
	return s.working.Set(key, value)
}

// Delete stages a removal for the next commit.
func (s *Store) Delete(key []byte) error {
	return s.working.Delete(key)
}

// Iterator returns the keys within [start, end).
func (s *Store) Iterator(start, end []byte) (store.Iterator, error) {
	return s.working.Iterator(start, end)
}

// ReverseIterator returns the keys within [start, end) in descending
// order.
func (s *Store) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return s.working.ReverseIterator(start, end)
}

// NewBatch returns a batch that stages all operations for the next commit
// when written.
func (s *Store) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(s)
}

// CacheWrap stages all writes in memory until Write is called.
func (s *Store) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Commit writes all pending operations and the new version counters in a
// single bbolt transaction.
func (s *Store) Commit() (store.CommitID, error) {
	ops := s.pending.ops
	next := store.CommitID{
		Version: s.latest.Version + 1,
		Written: int64(len(ops)),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(dataBucket)
		for _, op := range ops {
			var err error
			if op.IsDelete() {
				err = data.Delete(op.Key())
			} else {
				err = data.Put(op.Key(), op.Value())
			}
			if err != nil {
				return err
			}
		}
		meta := tx.Bucket(metaBucket)
		if err := meta.Put(versionKey, encodeInt(next.Version)); err != nil {
			return err
		}
		return meta.Put(writtenKey, encodeInt(next.Written))
	})
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	s.working.Discard()
	s.latest = next
	return next, nil
}

// LoadLatestVersion drops all uncommitted writes and reads the last
// committed version from disk.
func (s *Store) LoadLatestVersion() error {
	s.working.Discard()
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		s.latest = store.CommitID{
			Version: decodeInt(meta.Get(versionKey)),
			Written: decodeInt(meta.Get(writtenKey)),
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *Store) LatestVersion() (store.CommitID, error) {
	return s.latest, nil
}

// disk reads the committed data.
type disk struct {
	db *bolt.DB
}

func (d disk) Get(key []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(dataBucket).Get(key); v != nil {
			val = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

func (d disk) Has(key []byte) (bool, error) {
	val, err := d.Get(key)
	return val != nil, err
}

// Iterator returns a snapshot of the keys within [start, end).
func (d disk) Iterator(start, end []byte) (store.Iterator, error) {
	models, err := d.scan(start, end)
	if err != nil {
		return nil, err
	}
	return store.NewSliceIterator(models), nil
}

func (d disk) ReverseIterator(start, end []byte) (store.Iterator, error) {
	models, err := d.scan(start, end)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return store.NewSliceIterator(models), nil
}

func (d disk) scan(start, end []byte) ([]store.Model, error) {
	var models []store.Model
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(dataBucket).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			models = append(models, store.Model{
				Key:   append([]byte{}, k...),
				Value: append([]byte{}, v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return models, nil
}

// batch collects the operations of the next commit.
type batch struct {
	ops []store.Op
}

func (b *batch) Set(key, value []byte) error {
	b.ops = append(b.ops, store.SetOp(key, value))
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, store.DelOp(key))
	return nil
}

// Write is a no-op, the operations are written by Commit.
func (b *batch) Write() error {
	return nil
}

func (b *batch) Discard() {
	b.ops = nil
}

func encodeInt(v int64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(v))
	return raw
}

func decodeInt(raw []byte) int64 {
	if len(raw) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw))
}
