package orm

import (
	"testing"

	"github.com/iov-one/htlc/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()
	seq := NewSequence("transfer", "nonce")

	latest, err := seq.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	first, err := seq.NextVal(db)
	require.NoError(t, err)
	second, err := seq.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(1), first)
	assert.Equal(t, int64(2), second)

	// a discarded cache rolls the counter back
	cache := db.CacheWrap()
	n, err := seq.NextInt(cache)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	cache.Discard()

	latest, err = seq.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest)

	other := NewSequence("transfer", "other")
	latest, err = other.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)
}

func TestPrefixRange(t *testing.T) {
	cases := map[string]struct {
		prefix    []byte
		wantStart []byte
		wantEnd   []byte
	}{
		"empty":         {nil, nil, nil},
		"simple":        {[]byte("ab"), []byte("ab"), []byte("ac")},
		"carry":         {[]byte{0x01, 0xFF}, []byte{0x01, 0xFF}, []byte{0x02}},
		"all high bits": {[]byte{0xFF, 0xFF}, []byte{0xFF, 0xFF}, nil},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			start, end := prefixRange(tc.prefix)
			assert.Equal(t, tc.wantStart, start)
			assert.Equal(t, tc.wantEnd, end)
		})
	}
}
