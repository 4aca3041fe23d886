package bridge

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/weavetest"
	"github.com/iov-one/htlc/weavetest/assert"
	"github.com/iov-one/htlc/x/wrapped"
)

func TestHandlers(t *testing.T) {
	owner := weavetest.NewCondition()
	counterparty := weavetest.NewCondition()
	alice := weavetest.NewCondition()

	auth := &weavetest.CtxAuth{Key: "auth"}
	tokens := wrapped.NewLedger()
	ctrl := NewController(tokens)
	rt := app.NewRouter()
	wrapped.RegisterRoutes(rt, auth, tokens)
	RegisterRoutes(rt, auth, ctrl, tokens)

	db := store.MemStore()
	assert.Nil(t, tokens.IssueNative(db, alice.Address(), htlc.NewAmount(200)))
	assert.Nil(t, tokens.Deposit(db, alice.Address(), htlc.NewAmount(100)))

	amount := func(v uint64) []byte { return htlc.AmountBytes(htlc.NewAmount(v)) }
	preimage, hashLock, err := crypto.NewPreimage()
	assert.Nil(t, err)
	recipient := htlc.Bytes32(crypto.Keccak256([]byte("recipient")))

	var transferID []byte
	initiate := &InitiateMsg{
		Native:    amount(30),
		Fungible:  amount(70),
		Recipient: recipient,
		HashLock:  hashLock,
		Delay:     10,
	}

	steps := []struct {
		name       string
		height     int64
		signer     htlc.Condition
		msg        func() htlc.Msg
		checkErr   *errors.Error
		deliverErr *errors.Error
		wantEvent  string
	}{
		{
			name:       "initiate before initialization",
			height:     90,
			signer:     alice,
			msg:        func() htlc.Msg { return initiate },
			deliverErr: ErrNotInitialized,
		},
		{
			name:   "initialize",
			height: 91,
			msg: func() htlc.Msg {
				return &InitializeMsg{Ledger: tokens.Address(), Owner: owner.Address()}
			},
		},
		{
			name:   "initialize twice",
			height: 92,
			msg: func() htlc.Msg {
				return &InitializeMsg{Ledger: tokens.Address(), Owner: alice.Address()}
			},
			deliverErr: ErrAlreadyInitialized,
		},
		{
			name:   "set counterparty by a stranger",
			height: 93,
			signer: alice,
			msg: func() htlc.Msg {
				return &SetCounterpartyMsg{Counterparty: alice.Address()}
			},
			deliverErr: errors.ErrUnauthorized,
		},
		{
			name:   "set counterparty without a signer",
			height: 93,
			msg: func() htlc.Msg {
				return &SetCounterpartyMsg{Counterparty: alice.Address()}
			},
			checkErr:   errors.ErrUnauthorized,
			deliverErr: errors.ErrUnauthorized,
		},
		{
			name:   "set counterparty",
			height: 94,
			signer: owner,
			msg: func() htlc.Msg {
				return &SetCounterpartyMsg{Counterparty: counterparty.Address()}
			},
		},
		{
			name:       "initiate without allowance",
			height:     95,
			signer:     alice,
			msg:        func() htlc.Msg { return initiate },
			deliverErr: ErrValueTransferFailed,
		},
		{
			name:   "approve the bridge",
			height: 96,
			signer: alice,
			msg: func() htlc.Msg {
				return &wrapped.ApproveMsg{Spender: BridgeAddress, Amount: amount(70)}
			},
		},
		{
			name:   "initiate nothing",
			height: 97,
			signer: alice,
			msg: func() htlc.Msg {
				return &InitiateMsg{Recipient: recipient, HashLock: hashLock, Delay: 10}
			},
			checkErr:   ErrZeroAmount,
			deliverErr: ErrZeroAmount,
		},
		{
			name:      "initiate",
			height:    100,
			signer:    alice,
			msg:       func() htlc.Msg { return initiate },
			wantEvent: EventInitiated,
		},
		{
			name:   "refund too early",
			height: 110,
			msg: func() htlc.Msg {
				return &RefundMsg{TransferID: transferID}
			},
			deliverErr: ErrTimelockNotExpired,
		},
		{
			name:   "complete with a wrong secret",
			height: 105,
			msg: func() htlc.Msg {
				return &CompleteMsg{TransferID: transferID, Preimage: hashLock}
			},
			deliverErr: ErrInvalidSecret,
		},
		{
			name:   "complete",
			height: 110,
			msg: func() htlc.Msg {
				return &CompleteMsg{TransferID: transferID, Preimage: preimage}
			},
			wantEvent: EventCompleted,
		},
		{
			name:   "refund a completed transfer",
			height: 200,
			msg: func() htlc.Msg {
				return &RefundMsg{TransferID: transferID}
			},
			deliverErr: ErrAlreadyFinalized,
		},
		{
			name:   "withdraw by the originator",
			height: 201,
			signer: alice,
			msg: func() htlc.Msg {
				return &WithdrawMsg{Originator: alice.Address(), Amount: amount(100)}
			},
			deliverErr: errors.ErrUnauthorized,
		},
		{
			name:   "withdraw above the balance",
			height: 202,
			signer: counterparty,
			msg: func() htlc.Msg {
				return &WithdrawMsg{Originator: alice.Address(), Amount: amount(101)}
			},
			deliverErr: ErrInsufficientBalance,
		},
		{
			name:   "withdraw",
			height: 203,
			signer: counterparty,
			msg: func() htlc.Msg {
				return &WithdrawMsg{Originator: alice.Address(), Amount: amount(100)}
			},
			wantEvent: EventWithdrawn,
		},
	}

	for _, s := range steps {
		ctx := htlc.WithHeight(context.Background(), s.height)
		if s.signer != nil {
			ctx = auth.SetConditions(ctx, s.signer)
		}
		tx := &weavetest.Tx{Msg: s.msg()}
		if _, err := rt.Check(ctx, db, tx); !s.checkErr.Is(err) {
			t.Fatalf("%s: check: unexpected error %+v", s.name, err)
		}
		res, err := rt.Deliver(ctx, db, tx)
		if !s.deliverErr.Is(err) {
			t.Fatalf("%s: deliver: unexpected error %+v", s.name, err)
		}
		if s.wantEvent == "" {
			continue
		}
		assert.Equal(t, 1, len(res.Events))
		assert.Equal(t, s.wantEvent, res.Events[0].Name)
		if s.wantEvent == EventInitiated {
			transferID = res.Data
		}
	}

	tr, err := ctrl.Ledger().Get(db, transferID)
	assert.Nil(t, err)
	assert.Equal(t, StateCompleted, tr.State)
	assert.Equal(t, int64(110), tr.TimeLock)

	assertAmount(t, 0, mustAmount(t)(ctrl.Ledger().Balance(db, alice.Address())))
	assertAmount(t, 0, mustAmount(t)(tokens.Balance(db, BridgeAddress)))
	assertAmount(t, 130, mustAmount(t)(tokens.Balance(db, alice.Address())))
	assertAmount(t, 70, mustAmount(t)(tokens.NativeBalance(db, alice.Address())))
	assertAmount(t, 0, mustAmount(t)(tokens.NativeBalance(db, BridgeAddress)))
}

func mustAmount(t testing.TB) func(*uint256.Int, error) *uint256.Int {
	return func(v *uint256.Int, err error) *uint256.Int {
		t.Helper()
		assert.Nil(t, err)
		return v
	}
}
