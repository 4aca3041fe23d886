package store

import (
	"testing"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/weavetest/assert"
)

func memSuite() *TestSuite {
	return NewTestSuite(func() (CacheableKVStore, func()) {
		return MemStore(), func() {}
	})
}

func TestBTreeCacheGetSet(t *testing.T) {
	memSuite().GetSet(t)
}

func TestBTreeCacheConflicts(t *testing.T) {
	memSuite().CacheConflicts(t)
}

func TestBTreeCacheIterator(t *testing.T) {
	memSuite().Iterator(t)
}

func TestBTreeCacheableOverPlainStore(t *testing.T) {
	NewTestSuite(func() (CacheableKVStore, func()) {
		return BTreeCacheable{MemStore()}, func() {}
	}).GetSet(t)
}

func TestSliceIterator(t *testing.T) {
	it := NewSliceIterator([]Model{{Key: []byte("a"), Value: []byte("1")}})
	assert.Equal(t, true, it.Valid())
	assert.Equal(t, []byte("a"), it.Key())
	assert.Nil(t, it.Next())
	assert.Equal(t, false, it.Valid())
	assert.IsErr(t, errors.ErrIteratorDone, it.Next())
	assert.Panics(t, func() { it.Key() })
}

func TestNonAtomicBatch(t *testing.T) {
	db := MemStore()
	b := NewNonAtomicBatch(db)
	assert.Nil(t, b.Set([]byte("a"), []byte("1")))
	assert.Nil(t, b.Delete([]byte("b")))
	assert.Equal(t, 2, len(b.ShowOps()))
	assert.Equal(t, true, b.ShowOps()[1].IsDelete())

	v, err := db.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Nil(t, v)

	assert.Nil(t, b.Write())
	v, err = db.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("1"), v)
	assert.Equal(t, 0, len(b.ShowOps()))
}
