/*
Package crypto holds the hashing used by the bridge.

Hash locks and transfer ids use Keccak-256 so that a pre-image revealed on
this side can be checked by an EVM counterparty with its native keccak256.
*/
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"github.com/iov-one/htlc/errors"
	"golang.org/x/crypto/sha3"
)

// HashSize is the size of every digest, pre-image and hash lock.
const HashSize = 32

// Keccak256 returns the legacy (pre-standard) Keccak-256 digest of all
// chunks written one after another.
func Keccak256(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		// hash.Hash.Write never returns an error.
		_, _ = h.Write(c)
	}
	return h.Sum(nil)
}

// HashLock computes the commitment for a pre-image.
func HashLock(preimage []byte) []byte {
	return Keccak256(preimage)
}

// VerifyPreimage returns true if the pre-image opens the hash lock. The
// comparison time does not depend on where the values differ.
func VerifyPreimage(preimage, hashLock []byte) bool {
	if len(hashLock) != HashSize {
		return false
	}
	return subtle.ConstantTimeCompare(HashLock(preimage), hashLock) == 1
}

// NewPreimage returns a random pre-image and its hash lock.
func NewPreimage() (preimage []byte, hashLock []byte, err error) {
	preimage = make([]byte, HashSize)
	if _, err := rand.Read(preimage); err != nil {
		return nil, nil, errors.Wrap(err, "read random")
	}
	return preimage, HashLock(preimage), nil
}
