package store

import (
	"fmt"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/weavetest/assert"
)

// TestSuite runs the same checks against any CacheableKVStore
// implementation. Only the constructor of the store under test is
// package specific.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh, empty store and a function that
// releases it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet checks that writes are visible in the cache only until the cache
// is written, and never after it was discarded.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("LA"), []byte("Dodgers")
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	k3, v3 := []byte("Bayern"), []byte("Munich")
	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set(k3, v3))
	assert.Nil(t, discarded.Delete(k))
	s.AssertGetHas(t, discarded, k, nil, false)
	discarded.Discard()
	s.AssertGetHas(t, base, k3, nil, false)
	s.AssertGetHas(t, base, k, v, true)

	// a nested cache is only visible once every layer was written
	outer := base.CacheWrap()
	inner := outer.CacheWrap()
	assert.Nil(t, inner.Delete(k2))
	s.AssertGetHas(t, outer, k2, v2, true)
	assert.Nil(t, inner.Write())
	s.AssertGetHas(t, outer, k2, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
	assert.Nil(t, outer.Write())
	s.AssertGetHas(t, base, k2, nil, false)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := makeKeys("key", 4)
	vs := makeKeys("value", 12)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model // Key is what we query, Value is what we expect
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentQueries: []Model{htlc.Pair(ks[1], vs[1]), htlc.Pair(ks[2], vs[2]), htlc.Pair(ks[3], nil)},
			childQueries:  []Model{htlc.Pair(ks[1], vs[11]), htlc.Pair(ks[2], nil), htlc.Pair(ks[3], vs[7])},
		},
		"set after delete restores a value": {
			parentOps:     []Op{SetOp(ks[0], vs[0])},
			childOps:      []Op{DelOp(ks[0]), SetOp(ks[0], vs[5])},
			parentQueries: []Model{htlc.Pair(ks[0], vs[0])},
			childQueries:  []Model{htlc.Pair(ks[0], vs[5])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}

			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// Iterator checks ranges in both directions over data split between a
// store and a cache on top of it, including cached deletes.
func (s *TestSuite) Iterator(t *testing.T) {
	ks := makeKeys("k", 8)
	m := func(i int, v string) Model { return htlc.Pair(ks[i], []byte(v)) }

	base, cleanup := s.makeBase()
	defer cleanup()

	for _, i := range []int{0, 2, 4, 6} {
		assert.Nil(t, base.Set(ks[i], []byte("parent")))
	}
	cache := base.CacheWrap()
	for _, i := range []int{1, 4, 7} {
		assert.Nil(t, cache.Set(ks[i], []byte("child")))
	}
	assert.Nil(t, cache.Delete(ks[2]))
	assert.Nil(t, cache.Delete(ks[3]))

	all := []Model{m(0, "parent"), m(1, "child"), m(4, "child"), m(6, "parent"), m(7, "child")}

	cases := map[string]struct {
		start, end []byte
		reverse    bool
		want       []Model
	}{
		"full range":               {want: all},
		"from start":               {start: ks[4], want: all[2:]},
		"until end":                {end: ks[6], want: all[:3]},
		"both limits":              {start: ks[1], end: ks[7], want: all[1:4]},
		"empty range":              {start: ks[2], end: ks[4], want: nil},
		"reverse full range":       {reverse: true, want: reversed(all)},
		"reverse from start":       {start: ks[4], reverse: true, want: reversed(all[2:])},
		"reverse until end":        {end: ks[6], reverse: true, want: reversed(all[:3])},
		"reverse with both limits": {start: ks[1], end: ks[7], reverse: true, want: reversed(all[1:4])},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				it  Iterator
				err error
			)
			if tc.reverse {
				it, err = cache.ReverseIterator(tc.start, tc.end)
			} else {
				it, err = cache.Iterator(tc.start, tc.end)
			}
			assert.Nil(t, err)
			defer it.Close()

			var got []Model
			for ; it.Valid(); assert.Nil(t, it.Next()) {
				got = append(got, htlc.Pair(it.Key(), it.Value()))
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

// AssertGetHas checks both Get and Has for the given key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func makeKeys(prefix string, count int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = []byte(fmt.Sprintf("%s-%02d", prefix, i))
	}
	return res
}

func reversed(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}
