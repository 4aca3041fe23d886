package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// State is the lifecycle stage of a transfer. It only moves forward.
type State int32

const (
	StateInitialized State = 1
	StateCompleted   State = 2
	StateRefunded    State = 3
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "INITIALIZED"
	case StateCompleted:
		return "COMPLETED"
	case StateRefunded:
		return "REFUNDED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Validate returns an error for unknown states.
func (s State) Validate() error {
	switch s {
	case StateInitialized, StateCompleted, StateRefunded:
		return nil
	}
	return errors.Wrapf(errors.ErrState, "unknown state %d", int32(s))
}

// MarshalJSON renders the state name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Transfer is a single locked amount. It is created once by initiate,
// transitions once by complete or refund and is never deleted.
type Transfer struct {
	// Amount is the 32 byte big endian locked amount.
	Amount     []byte       `json:"-"`
	Originator htlc.Address `json:"originator"`
	Recipient  htlc.Bytes32 `json:"recipient"`
	HashLock   htlc.Bytes32 `json:"hash_lock"`
	// TimeLock is the last height at which the transfer can be completed.
	TimeLock int64 `json:"time_lock"`
	State    State `json:"state"`
}

var _ orm.Model = (*Transfer)(nil)

func (t *Transfer) Marshal() ([]byte, error) {
	return orm.Marshal(t)
}

func (t *Transfer) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, t)
}

// Validate ensures the transfer is consistent.
func (t *Transfer) Validate() error {
	amount, err := htlc.AmountFromBytes(t.Amount)
	if err != nil {
		return errors.Field("Amount", err, "invalid amount")
	}
	if amount.IsZero() {
		return errors.Field("Amount", ErrZeroAmount, "locked amount must be positive")
	}
	if err := t.Originator.Validate(); err != nil {
		return errors.Field("Originator", err, "invalid address")
	}
	if t.Originator.IsZero() {
		return errors.Field("Originator", ErrZeroAddress, "originator required")
	}
	if err := t.Recipient.Validate(); err != nil {
		return errors.Field("Recipient", err, "invalid recipient")
	}
	if err := t.HashLock.Validate(); err != nil {
		return errors.Field("HashLock", err, "invalid hash lock")
	}
	if t.TimeLock < 0 {
		return errors.Field("TimeLock", errors.ErrInput, "negative height")
	}
	if err := t.State.Validate(); err != nil {
		return errors.Field("State", err, "invalid state")
	}
	return nil
}

// LockedAmount returns the locked amount.
func (t *Transfer) LockedAmount() *uint256.Int {
	v, _ := htlc.AmountFromBytes(t.Amount)
	return v
}

// MarshalJSON adds the base 10 representation of the amount.
func (t Transfer) MarshalJSON() ([]byte, error) {
	type plain Transfer
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain: plain(t), Amount: htlc.FormatAmount(t.LockedAmount())})
}

// Balance is the total value locked by an account and not yet refunded or
// withdrawn.
type Balance struct {
	Amount []byte
}

var _ orm.Model = (*Balance)(nil)

func (b *Balance) Marshal() ([]byte, error) {
	return orm.Marshal(b)
}

func (b *Balance) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, b)
}

func (b *Balance) Validate() error {
	if _, err := htlc.AmountFromBytes(b.Amount); err != nil {
		return errors.Field("Amount", err, "invalid amount")
	}
	return nil
}

// Configuration is the AccessControl state.
type Configuration struct {
	// Ledger identifies the fungible value ledger.
	Ledger       htlc.Address `json:"ledger"`
	Owner        htlc.Address `json:"owner"`
	Counterparty htlc.Address `json:"counterparty,omitempty"`
	Initialized  bool         `json:"initialized"`
}

var _ orm.Model = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return orm.Marshal(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, c)
}

// Validate ensures an initialized configuration has a ledger and an owner.
// The counterparty is optional until set by the owner.
func (c *Configuration) Validate() error {
	if !c.Initialized {
		return errors.Wrap(ErrNotInitialized, "configuration")
	}
	if c.Ledger.IsZero() {
		return errors.Field("Ledger", ErrZeroAddress, "ledger required")
	}
	if err := c.Ledger.Validate(); err != nil {
		return errors.Field("Ledger", err, "invalid address")
	}
	if c.Owner.IsZero() {
		return errors.Field("Owner", ErrZeroAddress, "owner required")
	}
	if err := c.Owner.Validate(); err != nil {
		return errors.Field("Owner", err, "invalid address")
	}
	if len(c.Counterparty) != 0 {
		if err := c.Counterparty.Validate(); err != nil {
			return errors.Field("Counterparty", err, "invalid address")
		}
	}
	return nil
}
