package htlc

import (
	"fmt"

	"github.com/iov-one/htlc/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult captures any non-error result
// to make sure people use error for error cases
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// Events are the notifications emitted while the message was processed.
	Events []Event
	// GasUsed is informational only.
	GasUsed int64
}

// ToABCI flattens the events into tags so that a tendermint indexer can
// search the transaction history by any event attribute.
func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	var tags []common.KVPair
	for _, e := range d.Events {
		tags = append(tags, e.Tags()...)
	}
	return abci.ResponseDeliverTx{
		Data:    d.Data,
		Log:     d.Log,
		Tags:    tags,
		GasUsed: d.GasUsed,
	}
}

// DeliverOrError returns an abci response for DeliverTx,
// converting the error message if present, or using the successful
// DeliverResult
func DeliverOrError(result *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		code, log := errors.ABCIInfo(err, debug)
		return abci.ResponseDeliverTx{
			Code: code,
			Log:  log,
		}
	}
	return result.ToABCI()
}

// CheckResult captures any non-error result
// to make sure people use error for error cases
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// GasAllocated is the maximum units of work we allow this tx to perform
	GasAllocated int64
}

// Event is a named notification with ordered attributes.
type Event struct {
	Name       string
	Attributes []common.KVPair
}

// NewEvent builds an event out of key/value pairs.
// It panics on an odd number of arguments.
func NewEvent(name string, kv ...string) Event {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("event %s: odd number of attributes", name))
	}
	e := Event{Name: name}
	for i := 0; i < len(kv); i += 2 {
		e.Attributes = append(e.Attributes, common.KVPair{
			Key:   []byte(kv[i]),
			Value: []byte(kv[i+1]),
		})
	}
	return e
}

// Attr returns the value of the first attribute with the given key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if string(a.Key) == key {
			return string(a.Value), true
		}
	}
	return "", false
}

// Tags returns the attributes prefixed with the event name.
func (e Event) Tags() []common.KVPair {
	tags := make([]common.KVPair, len(e.Attributes))
	for i, a := range e.Attributes {
		tags[i] = common.KVPair{
			Key:   []byte(e.Name + "." + string(a.Key)),
			Value: a.Value,
		}
	}
	return tags
}
