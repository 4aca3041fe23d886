package bridge

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x"
	"github.com/iov-one/htlc/x/utils"
)

const (
	initiateCost int64 = 300
	settleCost   int64 = 100
	adminCost    int64 = 10
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r htlc.Registry, auth x.Authenticator, ctrl *Controller, native NativeMover) {
	r.Handle(pathInitialize, InitializeHandler{ctrl: ctrl})
	r.Handle(pathSetCounterparty, SetCounterpartyHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathTransferOwnership, TransferOwnershipHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathInitiate, InitiateHandler{auth: auth, ctrl: ctrl, native: native})
	r.Handle(pathComplete, CompleteHandler{ctrl: ctrl})
	r.Handle(pathRefund, RefundHandler{ctrl: ctrl})
	r.Handle(pathWithdraw, WithdrawHandler{auth: auth, ctrl: ctrl})
}

// RegisterQuery will register the transfers as "/transfers" and the
// balances as "/balances".
func RegisterQuery(qr htlc.QueryRouter) {
	NewTransferLedger().RegisterQuery(qr)
}

// InitializeHandler sets the ledger and the owner. The first caller wins.
type InitializeHandler struct {
	ctrl *Controller
}

var _ htlc.Handler = InitializeHandler{}

func (h InitializeHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg InitializeMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &htlc.CheckResult{GasAllocated: adminCost}, nil
}

func (h InitializeHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg InitializeMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := h.ctrl.Initialize(db, msg.Ledger, msg.Owner); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, nil
}

// SetCounterpartyHandler registers the counterparty. Owner only.
type SetCounterpartyHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ htlc.Handler = SetCounterpartyHandler{}

func (h SetCounterpartyHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg SetCounterpartyMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: adminCost}, nil
}

func (h SetCounterpartyHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg SetCounterpartyMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.SetCounterparty(db, caller, msg.Counterparty); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, nil
}

// TransferOwnershipHandler changes the owner. Owner only.
type TransferOwnershipHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ htlc.Handler = TransferOwnershipHandler{}

func (h TransferOwnershipHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg TransferOwnershipMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: adminCost}, nil
}

func (h TransferOwnershipHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg TransferOwnershipMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.TransferOwnership(db, caller, msg.Owner); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, nil
}

// InitiateHandler locks value of the signer.
type InitiateHandler struct {
	auth   x.Authenticator
	ctrl   *Controller
	native NativeMover
}

var _ htlc.Handler = InitiateHandler{}

func (h InitiateHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg InitiateMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{GasAllocated: initiateCost}, nil
}

// Deliver attaches the native value to the call by moving it to the
// bridge and then initiates the transfer. Both happen or neither.
func (h InitiateHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg InitiateMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}

	var (
		id    []byte
		event htlc.Event
	)
	err = utils.Atomic(db, func(db htlc.KVStore) error {
		if native := msg.NativeAmount(); !native.IsZero() {
			if err := h.native.MoveNative(db, caller, BridgeAddress, native); err != nil {
				return errors.Wrap(err, "attach native value")
			}
		}
		var err error
		id, event, err = h.ctrl.Initiate(ctx, db, caller,
			msg.NativeAmount(), msg.FungibleAmount(),
			msg.Recipient, msg.HashLock, msg.Delay)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{
		Data:   id,
		Events: []htlc.Event{event},
	}, nil
}

// CompleteHandler reveals a pre-image. Anyone knowing it can complete.
type CompleteHandler struct {
	ctrl *Controller
}

var _ htlc.Handler = CompleteHandler{}

func (h CompleteHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg CompleteMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &htlc.CheckResult{GasAllocated: settleCost}, nil
}

func (h CompleteHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg CompleteMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	event, err := h.ctrl.Complete(ctx, db, msg.TransferID, msg.Preimage)
	if err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{Events: []htlc.Event{event}}, nil
}

// RefundHandler returns an expired transfer. Anyone can refund.
type RefundHandler struct {
	ctrl *Controller
}

var _ htlc.Handler = RefundHandler{}

func (h RefundHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg RefundMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &htlc.CheckResult{GasAllocated: settleCost}, nil
}

func (h RefundHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg RefundMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	event, err := h.ctrl.Refund(ctx, db, msg.TransferID)
	if err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{Events: []htlc.Event{event}}, nil
}

// WithdrawHandler settles value attributed to an originator. Counterparty
// only.
type WithdrawHandler struct {
	auth x.Authenticator
	ctrl *Controller
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
	return &htlc.CheckResult{GasAllocated: settleCost}, nil
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
	event, err := h.ctrl.Withdraw(ctx, db, caller, msg.Originator, msg.WithdrawAmount())
	if err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{Events: []htlc.Event{event}}, nil
}
