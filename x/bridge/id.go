package bridge

import (
	"encoding/binary"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
)

// TransferID derives the id of a transfer. The nonce is incremented by
// every initiate so that two identical requests at the same height still
// get different ids.
func TransferID(caller htlc.Address, recipient, hashLock htlc.Bytes32, delay, height, nonce int64) []byte {
	return crypto.Keccak256(
		caller,
		recipient,
		hashLock,
		uint64Bytes(delay),
		uint64Bytes(height),
		uint64Bytes(nonce),
	)
}

func uint64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
