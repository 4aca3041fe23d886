package bridge

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

const (
	pathInitialize        = "bridge/initialize"
	pathSetCounterparty   = "bridge/set_counterparty"
	pathTransferOwnership = "bridge/transfer_ownership"
	pathInitiate          = "bridge/initiate"
	pathComplete          = "bridge/complete"
	pathRefund            = "bridge/refund"
	pathWithdraw          = "bridge/withdraw"
)

// InitializeMsg sets the fungible ledger and the owner of the bridge.
type InitializeMsg struct {
	Ledger htlc.Address
	Owner  htlc.Address
}

var _ htlc.Msg = (*InitializeMsg)(nil)

func (InitializeMsg) Path() string { return pathInitialize }

func (m *InitializeMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *InitializeMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *InitializeMsg) Validate() error {
	if err := validateIdentity(m.Ledger); err != nil {
		return errors.Field("Ledger", err, "invalid ledger")
	}
	if err := validateIdentity(m.Owner); err != nil {
		return errors.Field("Owner", err, "invalid owner")
	}
	return nil
}

// SetCounterpartyMsg registers the identity allowed to withdraw.
type SetCounterpartyMsg struct {
	Counterparty htlc.Address
}

var _ htlc.Msg = (*SetCounterpartyMsg)(nil)

func (SetCounterpartyMsg) Path() string { return pathSetCounterparty }

func (m *SetCounterpartyMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *SetCounterpartyMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *SetCounterpartyMsg) Validate() error {
	if err := validateIdentity(m.Counterparty); err != nil {
		return errors.Field("Counterparty", err, "invalid counterparty")
	}
	return nil
}

// TransferOwnershipMsg hands the owner role over.
type TransferOwnershipMsg struct {
	Owner htlc.Address
}

var _ htlc.Msg = (*TransferOwnershipMsg)(nil)

func (TransferOwnershipMsg) Path() string { return pathTransferOwnership }

func (m *TransferOwnershipMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *TransferOwnershipMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *TransferOwnershipMsg) Validate() error {
	if err := validateIdentity(m.Owner); err != nil {
		return errors.Field("Owner", err, "invalid owner")
	}
	return nil
}

// InitiateMsg locks value of the signer. Native is the native value
// attached to the message, Fungible is pulled from the signer tokens.
type InitiateMsg struct {
	Native    []byte
	Fungible  []byte
	Recipient htlc.Bytes32
	HashLock  htlc.Bytes32
	// Delay is the number of blocks the transfer can be completed in.
	Delay int64
}

var _ htlc.Msg = (*InitiateMsg)(nil)

func (InitiateMsg) Path() string { return pathInitiate }

func (m *InitiateMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *InitiateMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *InitiateMsg) Validate() error {
	native, err := htlc.AmountFromBytes(m.Native)
	if err != nil {
		return errors.Field("Native", err, "invalid amount")
	}
	fungible, err := htlc.AmountFromBytes(m.Fungible)
	if err != nil {
		return errors.Field("Fungible", err, "invalid amount")
	}
	total, err := htlc.AddAmount(native, fungible)
	if err != nil {
		return errors.Field("Fungible", err, "total amount")
	}
	if total.IsZero() {
		return errors.Field("Fungible", ErrZeroAmount, "nothing to lock")
	}
	if err := m.Recipient.Validate(); err != nil {
		return errors.Field("Recipient", err, "invalid recipient")
	}
	if err := m.HashLock.Validate(); err != nil {
		return errors.Field("HashLock", err, "invalid hash lock")
	}
	if m.Delay < 0 {
		return errors.Field("Delay", errors.ErrInput, "negative delay")
	}
	return nil
}

// NativeAmount returns the attached native value.
func (m *InitiateMsg) NativeAmount() *uint256.Int {
	v, _ := htlc.AmountFromBytes(m.Native)
	return v
}

// FungibleAmount returns the amount pulled from the signer tokens.
func (m *InitiateMsg) FungibleAmount() *uint256.Int {
	v, _ := htlc.AmountFromBytes(m.Fungible)
	return v
}

// CompleteMsg reveals the pre-image of a transfer hash lock.
type CompleteMsg struct {
	TransferID htlc.Bytes32
	Preimage   htlc.Bytes32
}

var _ htlc.Msg = (*CompleteMsg)(nil)

func (CompleteMsg) Path() string { return pathComplete }

func (m *CompleteMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *CompleteMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *CompleteMsg) Validate() error {
	if err := m.TransferID.Validate(); err != nil {
		return errors.Field("TransferID", err, "invalid id")
	}
	if err := m.Preimage.Validate(); err != nil {
		return errors.Field("Preimage", err, "invalid pre-image")
	}
	return nil
}

// RefundMsg returns an expired transfer to its originator.
type RefundMsg struct {
	TransferID htlc.Bytes32
}

var _ htlc.Msg = (*RefundMsg)(nil)

func (RefundMsg) Path() string { return pathRefund }

func (m *RefundMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *RefundMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *RefundMsg) Validate() error {
	if err := m.TransferID.Validate(); err != nil {
		return errors.Field("TransferID", err, "invalid id")
	}
	return nil
}

// WithdrawMsg releases value attributed to the originator. It is signed
// by the counterparty.
type WithdrawMsg struct {
	Originator htlc.Address
	Amount     []byte
}

var _ htlc.Msg = (*WithdrawMsg)(nil)

func (WithdrawMsg) Path() string { return pathWithdraw }

func (m *WithdrawMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *WithdrawMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *WithdrawMsg) Validate() error {
	if err := validateIdentity(m.Originator); err != nil {
		return errors.Field("Originator", err, "invalid originator")
	}
	if _, err := htlc.AmountFromBytes(m.Amount); err != nil {
		return errors.Field("Amount", err, "invalid amount")
	}
	return nil
}

// WithdrawAmount returns the requested amount.
func (m *WithdrawMsg) WithdrawAmount() *uint256.Int {
	v, _ := htlc.AmountFromBytes(m.Amount)
	return v
}

// validateIdentity rejects the null identity before checking the size.
func validateIdentity(a htlc.Address) error {
	if a.IsZero() {
		return ErrZeroAddress
	}
	return a.Validate()
}
