package sigs

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// NextNonce returns the next numeric nonce value that should be used during a
// transaction signing.
// You can get the signers address by calling
//   address := <crypto.Signer>.PublicKey().Address()
func NextNonce(db htlc.ReadOnlyKVStore, signer htlc.Address) (int64, error) {
	var user UserData
	switch err := NewBucket().One(db, signer, &user); {
	case errors.ErrNotFound.Is(err):
		// If not yet present, nonce counting starts with zero.
		return 0, nil
	case err != nil:
		return 0, errors.Wrap(err, "bucket get")
	}
	return user.Sequence, nil
}
