package sigs

import (
	"testing"

	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/weavetest/assert"
)

func TestCheckAndIncrementSequence(t *testing.T) {
	cases := map[string]struct {
		current  int64
		expected int64
		wantErr  *errors.Error
		wantSeq  int64
	}{
		"matching sequence": {current: 3, expected: 3, wantSeq: 4},
		"replayed sequence": {current: 3, expected: 2, wantErr: ErrInvalidSequence, wantSeq: 3},
		"future sequence":   {current: 3, expected: 4, wantErr: ErrInvalidSequence, wantSeq: 3},
		"upper bound": {
			current:  maxSequenceValue,
			expected: maxSequenceValue,
			wantErr:  errors.ErrOverflow,
			wantSeq:  maxSequenceValue,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			u := UserData{Pubkey: crypto.GenPrivKeyEd25519().PublicKey(), Sequence: tc.current}
			if err := u.CheckAndIncrementSequence(tc.expected); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, tc.wantSeq, u.Sequence)
		})
	}
}

func TestGetOrCreate(t *testing.T) {
	db := store.MemStore()
	bucket := NewBucket()
	pub := crypto.GenPrivKeyEd25519().PublicKey()

	user, err := bucket.GetOrCreate(db, pub)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), user.Sequence)

	assert.Nil(t, user.CheckAndIncrementSequence(0))
	assert.Nil(t, bucket.Put(db, pub.Address(), user))

	loaded, err := bucket.GetOrCreate(db, pub)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), loaded.Sequence)
	assert.Equal(t, pub.Address(), loaded.Pubkey.Address())
}
