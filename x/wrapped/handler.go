package wrapped

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/gconf"
	"github.com/iov-one/htlc/x"
)

const (
	// packageName is the gconf key of the Configuration.
	packageName = "wrapped"

	issueCost   int64 = 10
	moveCost    int64 = 10
	approveCost int64 = 5
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r htlc.Registry, auth x.Authenticator, ledger *Ledger) {
	r.Handle(pathIssue, IssueHandler{auth: auth, ledger: ledger})
	r.Handle(pathDeposit, DepositHandler{auth: auth, ledger: ledger})
	r.Handle(pathWithdraw, WithdrawHandler{auth: auth, ledger: ledger})
	r.Handle(pathTransfer, TransferHandler{auth: auth, ledger: ledger})
	r.Handle(pathApprove, ApproveHandler{auth: auth, ledger: ledger})
}

// IssueHandler creates native value.
type IssueHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ htlc.Handler = IssueHandler{}

func (h IssueHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: issueCost}, nil
}

func (h IssueHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.IssueNative(db, msg.Destination, amountOf(msg.Amount)); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, nil
}

func (h IssueHandler) validate(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*IssueMsg, error) {
	var msg IssueMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	if !h.auth.HasAddress(ctx, conf.Minter) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "minter signature missing")
	}
	return &msg, nil
}

// DepositHandler wraps native value of the signer.
type DepositHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ htlc.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg DepositMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: moveCost}, nil
}

func (h DepositHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg DepositMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.Deposit(db, caller, amountOf(msg.Amount)); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, nil
}

// WithdrawHandler unwraps tokens of the signer.
type WithdrawHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ htlc.Handler = WithdrawHandler{}

func (h WithdrawHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg WithdrawMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: moveCost}, nil
}

func (h WithdrawHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg WithdrawMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.Withdraw(db, caller, amountOf(msg.Amount)); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, nil
}

// TransferHandler moves tokens of the signer.
type TransferHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ htlc.Handler = TransferHandler{}

func (h TransferHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg TransferMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: moveCost}, nil
}

func (h TransferHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg TransferMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	switch ok, err := h.ledger.Transfer(db, caller, msg.Destination, amountOf(msg.Amount)); {
	case err != nil:
		return nil, err
	case !ok:
		return nil, errors.Wrap(errors.ErrAmount, "insufficient token funds")
	}
	return &htlc.DeliverResult{}, nil
}

// ApproveHandler sets an allowance over the signer tokens.
type ApproveHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ htlc.Handler = ApproveHandler{}

func (h ApproveHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg ApproveMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: approveCost}, nil
}

func (h ApproveHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg ApproveMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.Approve(db, caller, msg.Spender, amountOf(msg.Amount)); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, nil
}
