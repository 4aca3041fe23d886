package weavetest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/iov-one/htlc"
)

var condSeq uint64

// NewCondition returns a new, unique condition. Each call returns a
// condition that was never returned before during the process lifetime.
func NewCondition() htlc.Condition {
	n := atomic.AddUint64(&condSeq, 1)
	return htlc.NewCondition("test", "seq", SequenceID(n))
}

// NewAddress returns the address of a new, unique condition.
func NewAddress() htlc.Address {
	return NewCondition().Address()
}

// SequenceID returns the 8 byte big endian encoding of n.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
