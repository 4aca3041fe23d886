package weavetest

import "github.com/iov-one/htlc"

// Tx represents a transaction carrying a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg htlc.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ htlc.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (htlc.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg represents a message routed by its path.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Serialized represents the serialized form of this message.
	Serialized []byte
	// Err if set is returned by any method call.
	Err error
}

var _ htlc.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}

func (m *Msg) Unmarshal(b []byte) error {
	m.Serialized = b
	return m.Err
}

func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}
