package wrapped

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

const (
	pathIssue    = "wrapped/issue"
	pathDeposit  = "wrapped/deposit"
	pathWithdraw = "wrapped/withdraw"
	pathTransfer = "wrapped/transfer"
	pathApprove  = "wrapped/approve"
)

// IssueMsg creates native value on the destination account. Only the
// configured minter can issue.
type IssueMsg struct {
	Destination htlc.Address
	Amount      []byte
}

var _ htlc.Msg = (*IssueMsg)(nil)

func (IssueMsg) Path() string { return pathIssue }

func (m *IssueMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *IssueMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *IssueMsg) Validate() error {
	if err := m.Destination.Validate(); err != nil {
		return errors.Field("Destination", err, "invalid address")
	}
	return validatePositive(m.Amount)
}

// DepositMsg converts native value of the signer into tokens.
type DepositMsg struct {
	Amount []byte
}

var _ htlc.Msg = (*DepositMsg)(nil)

func (DepositMsg) Path() string { return pathDeposit }

func (m *DepositMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *DepositMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *DepositMsg) Validate() error {
	return validatePositive(m.Amount)
}

// WithdrawMsg converts tokens of the signer back into native value.
type WithdrawMsg struct {
	Amount []byte
}

var _ htlc.Msg = (*WithdrawMsg)(nil)

func (WithdrawMsg) Path() string { return pathWithdraw }

func (m *WithdrawMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *WithdrawMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *WithdrawMsg) Validate() error {
	return validatePositive(m.Amount)
}

// TransferMsg moves tokens of the signer to the destination.
type TransferMsg struct {
	Destination htlc.Address
	Amount      []byte
}

var _ htlc.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string { return pathTransfer }

func (m *TransferMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *TransferMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *TransferMsg) Validate() error {
	if err := m.Destination.Validate(); err != nil {
		return errors.Field("Destination", err, "invalid address")
	}
	return validatePositive(m.Amount)
}

// ApproveMsg sets the allowance of the spender over the signer tokens. A
// zero amount revokes the allowance.
type ApproveMsg struct {
	Spender htlc.Address
	Amount  []byte
}

var _ htlc.Msg = (*ApproveMsg)(nil)

func (ApproveMsg) Path() string { return pathApprove }

func (m *ApproveMsg) Marshal() ([]byte, error) { return orm.Marshal(m) }

func (m *ApproveMsg) Unmarshal(raw []byte) error { return orm.Unmarshal(raw, m) }

func (m *ApproveMsg) Validate() error {
	if err := m.Spender.Validate(); err != nil {
		return errors.Field("Spender", err, "invalid address")
	}
	if _, err := htlc.AmountFromBytes(m.Amount); err != nil {
		return errors.Field("Amount", err, "invalid amount")
	}
	return nil
}

func validatePositive(raw []byte) error {
	amount, err := htlc.AmountFromBytes(raw)
	if err != nil {
		return errors.Field("Amount", err, "invalid amount")
	}
	if amount.IsZero() {
		return errors.Field("Amount", errors.ErrAmount, "must be positive")
	}
	return nil
}

func amountOf(raw []byte) *uint256.Int {
	v, _ := htlc.AmountFromBytes(raw)
	return v
}
