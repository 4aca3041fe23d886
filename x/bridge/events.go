package bridge

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
)

// Names of the events emitted by the bridge.
const (
	EventInitiated = "Initiated"
	EventCompleted = "Completed"
	EventRefunded  = "Refunded"
	EventWithdrawn = "Withdrawn"
)

func initiatedEvent(id []byte, t *Transfer, delay int64) htlc.Event {
	return htlc.NewEvent(EventInitiated,
		"id", htlc.Bytes32(id).String(),
		"originator", t.Originator.String(),
		"recipient", t.Recipient.String(),
		"amount", htlc.FormatAmount(t.LockedAmount()),
		"hash_lock", t.HashLock.String(),
		"delay", strconv.FormatInt(delay, 10),
	)
}

func completedEvent(id, preimage []byte) htlc.Event {
	return htlc.NewEvent(EventCompleted,
		"id", htlc.Bytes32(id).String(),
		"preimage", htlc.Bytes32(preimage).String(),
	)
}

func refundedEvent(id []byte) htlc.Event {
	return htlc.NewEvent(EventRefunded,
		"id", htlc.Bytes32(id).String(),
	)
}

func withdrawnEvent(originator htlc.Address, amount *uint256.Int) htlc.Event {
	return htlc.NewEvent(EventWithdrawn,
		"originator", originator.String(),
		"amount", htlc.FormatAmount(amount),
	)
}
