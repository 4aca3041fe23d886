package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256(t *testing.T) {
	cases := map[string]struct {
		chunks [][]byte
		want   string
	}{
		"empty input": {
			chunks: nil,
			want:   "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		},
		"single chunk": {
			chunks: [][]byte{[]byte("abc")},
			want:   "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		},
		"chunks are concatenated": {
			chunks: [][]byte{[]byte("a"), []byte("bc")},
			want:   "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, hex.EncodeToString(Keccak256(tc.chunks...)))
		})
	}
}

func TestPreimage(t *testing.T) {
	preimage, lock, err := NewPreimage()
	require.NoError(t, err)
	assert.Len(t, preimage, HashSize)
	assert.Len(t, lock, HashSize)

	assert.True(t, VerifyPreimage(preimage, lock))

	other := append([]byte{}, preimage...)
	other[0] ^= 0xFF
	assert.False(t, VerifyPreimage(other, lock))
	assert.False(t, VerifyPreimage(preimage, lock[:31]))

	again, _, err := NewPreimage()
	require.NoError(t, err)
	assert.NotEqual(t, preimage, again)
}
