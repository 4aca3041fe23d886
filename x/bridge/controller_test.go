package bridge

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/weavetest"
	"github.com/iov-one/htlc/weavetest/assert"
	"github.com/iov-one/htlc/x/wrapped"
)

// fixture is an initialized bridge over a wrapped ledger. The originator
// holds 500 tokens, all approved to the bridge, and 500 native units.
type fixture struct {
	db           htlc.CacheableKVStore
	tokens       *wrapped.Ledger
	ctrl         *Controller
	owner        htlc.Address
	counterparty htlc.Address
	originator   htlc.Address
	recipient    htlc.Bytes32
	preimage     htlc.Bytes32
	hashLock     htlc.Bytes32
}

func newFixture(t testing.TB, ledger func(*wrapped.Ledger) FungibleLedger) *fixture {
	t.Helper()
	f := &fixture{
		db:           store.MemStore(),
		tokens:       wrapped.NewLedger(),
		owner:        weavetest.NewAddress(),
		counterparty: weavetest.NewAddress(),
		originator:   weavetest.NewAddress(),
		recipient:    htlc.Bytes32(crypto.Keccak256([]byte("recipient"))),
		preimage:     htlc.Bytes32(crypto.Keccak256([]byte("secret"))),
	}
	f.hashLock = crypto.HashLock(f.preimage)

	var fl FungibleLedger = f.tokens
	if ledger != nil {
		fl = ledger(f.tokens)
	}
	f.ctrl = NewController(fl)

	assert.Nil(t, f.ctrl.Initialize(f.db, f.tokens.Address(), f.owner))
	assert.Nil(t, f.ctrl.SetCounterparty(f.db, f.owner, f.counterparty))
	assert.Nil(t, f.tokens.IssueNative(f.db, f.originator, htlc.NewAmount(1000)))
	assert.Nil(t, f.tokens.Deposit(f.db, f.originator, htlc.NewAmount(500)))
	assert.Nil(t, f.tokens.Approve(f.db, f.originator, BridgeAddress, htlc.NewAmount(500)))
	return f
}

func atHeight(h int64) htlc.Context {
	return htlc.WithHeight(context.Background(), h)
}

// initiate locks fungible tokens of the originator at height 1000 with a
// 50 block delay.
func (f *fixture) initiate(t testing.TB, fungible uint64) []byte {
	t.Helper()
	id, _, err := f.ctrl.Initiate(atHeight(1000), f.db, f.originator,
		htlc.ZeroAmount(), htlc.NewAmount(fungible), f.recipient, f.hashLock, 50)
	assert.Nil(t, err)
	return id
}

func (f *fixture) locked(t testing.TB, a htlc.Address) *uint256.Int {
	t.Helper()
	b, err := f.ctrl.Ledger().Balance(f.db, a)
	assert.Nil(t, err)
	return b
}

func (f *fixture) tokenBalance(t testing.TB, a htlc.Address) *uint256.Int {
	t.Helper()
	b, err := f.tokens.Balance(f.db, a)
	assert.Nil(t, err)
	return b
}

func (f *fixture) state(t testing.TB, id []byte) State {
	t.Helper()
	tr, err := f.ctrl.Ledger().Get(f.db, id)
	assert.Nil(t, err)
	return tr.State
}

func assertAmount(t testing.TB, want uint64, got *uint256.Int) {
	t.Helper()
	if !got.Eq(htlc.NewAmount(want)) {
		t.Fatalf("want %d, got %s", want, htlc.FormatAmount(got))
	}
}

func TestCompleteBeforeDeadline(t *testing.T) {
	f := newFixture(t, nil)
	id := f.initiate(t, 100)

	tr, err := f.ctrl.Ledger().Get(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, int64(1050), tr.TimeLock)
	assert.Equal(t, StateInitialized, tr.State)
	assert.Equal(t, f.originator, tr.Originator)
	assertAmount(t, 100, tr.LockedAmount())
	assertAmount(t, 100, f.locked(t, f.originator))
	assertAmount(t, 100, f.tokenBalance(t, BridgeAddress))
	assertAmount(t, 400, f.tokenBalance(t, f.originator))

	event, err := f.ctrl.Complete(atHeight(1040), f.db, id, f.preimage)
	assert.Nil(t, err)
	assert.Equal(t, EventCompleted, event.Name)
	preimage, _ := event.Attr("preimage")
	assert.Equal(t, f.preimage.String(), preimage)

	assert.Equal(t, StateCompleted, f.state(t, id))
	// completing does not move any value
	assertAmount(t, 100, f.locked(t, f.originator))
	assertAmount(t, 100, f.tokenBalance(t, BridgeAddress))

	_, err = f.ctrl.Complete(atHeight(1041), f.db, id, f.preimage)
	assert.IsErr(t, ErrAlreadyFinalized, err)
}

func TestCompleteAtDeadline(t *testing.T) {
	f := newFixture(t, nil)
	id := f.initiate(t, 100)
	_, err := f.ctrl.Complete(atHeight(1050), f.db, id, f.preimage)
	assert.Nil(t, err)
}

func TestCompleteAfterDeadline(t *testing.T) {
	f := newFixture(t, nil)
	id := f.initiate(t, 100)

	_, err := f.ctrl.Complete(atHeight(1060), f.db, id, f.preimage)
	assert.IsErr(t, ErrTimelockExpired, err)
	assert.Equal(t, StateInitialized, f.state(t, id))
}

func TestCompleteCheckOrder(t *testing.T) {
	f := newFixture(t, nil)
	id := f.initiate(t, 100)
	wrong := htlc.Bytes32(crypto.Keccak256([]byte("wrong")))

	cases := map[string]struct {
		id       []byte
		preimage htlc.Bytes32
		height   int64
		wantErr  *errors.Error
	}{
		"unknown transfer": {
			id:       crypto.Keccak256([]byte("unknown")),
			preimage: wrong,
			height:   2000,
			wantErr:  errors.ErrNotFound,
		},
		"wrong secret is reported before expiry": {
			id:       id,
			preimage: wrong,
			height:   2000,
			wantErr:  ErrInvalidSecret,
		},
		"wrong secret before deadline": {
			id:       id,
			preimage: wrong,
			height:   1001,
			wantErr:  ErrInvalidSecret,
		},
		"correct secret after deadline": {
			id:       id,
			preimage: f.preimage,
			height:   1051,
			wantErr:  ErrTimelockExpired,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := f.ctrl.Complete(atHeight(tc.height), f.db, tc.id, tc.preimage)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
	assert.Equal(t, StateInitialized, f.state(t, id))
}

func TestRefundAfterDeadline(t *testing.T) {
	f := newFixture(t, nil)
	id := f.initiate(t, 100)

	_, err := f.ctrl.Refund(atHeight(1050), f.db, id)
	assert.IsErr(t, ErrTimelockNotExpired, err)

	event, err := f.ctrl.Refund(atHeight(1051), f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, EventRefunded, event.Name)
	assert.Equal(t, StateRefunded, f.state(t, id))
	assertAmount(t, 0, f.locked(t, f.originator))
	assertAmount(t, 0, f.tokenBalance(t, BridgeAddress))
	assertAmount(t, 500, f.tokenBalance(t, f.originator))

	_, err = f.ctrl.Refund(atHeight(1052), f.db, id)
	assert.IsErr(t, ErrAlreadyFinalized, err)
	assertAmount(t, 500, f.tokenBalance(t, f.originator))

	_, err = f.ctrl.Refund(atHeight(1052), f.db, crypto.Keccak256([]byte("unknown")))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestCompleteAndRefundAreExclusive(t *testing.T) {
	f := newFixture(t, nil)

	completed := f.initiate(t, 100)
	_, err := f.ctrl.Complete(atHeight(1010), f.db, completed, f.preimage)
	assert.Nil(t, err)
	_, err = f.ctrl.Refund(atHeight(2000), f.db, completed)
	assert.IsErr(t, ErrAlreadyFinalized, err)

	refunded := f.initiate(t, 100)
	_, err = f.ctrl.Refund(atHeight(2000), f.db, refunded)
	assert.Nil(t, err)
	_, err = f.ctrl.Complete(atHeight(1010), f.db, refunded, f.preimage)
	assert.IsErr(t, ErrAlreadyFinalized, err)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t, nil)
	f.initiate(t, 100)

	cases := map[string]struct {
		caller  htlc.Address
		amount  uint64
		wantErr *errors.Error
		wantOut uint64
	}{
		"stranger is unauthorized despite the balance": {
			caller:  weavetest.NewAddress(),
			amount:  10,
			wantErr: errors.ErrUnauthorized,
		},
		"owner is not the counterparty": {
			caller:  f.owner,
			amount:  10,
			wantErr: errors.ErrUnauthorized,
		},
		"originator cannot withdraw": {
			caller:  f.originator,
			amount:  10,
			wantErr: errors.ErrUnauthorized,
		},
		"counterparty above the balance": {
			caller:  f.counterparty,
			amount:  101,
			wantErr: ErrInsufficientBalance,
		},
		"counterparty within the balance": {
			caller:  f.counterparty,
			amount:  60,
			wantOut: 60,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			cache := f.db.CacheWrap()
			defer cache.Discard()

			_, err := f.ctrl.Withdraw(atHeight(1001), cache, tc.caller, f.originator, htlc.NewAmount(tc.amount))
			assert.IsErr(t, tc.wantErr, err)

			locked, err := f.ctrl.Ledger().Balance(cache, f.originator)
			assert.Nil(t, err)
			assertAmount(t, 100-tc.wantOut, locked)
			out, err := f.tokens.Balance(cache, f.originator)
			assert.Nil(t, err)
			assertAmount(t, 400+tc.wantOut, out)
		})
	}
}

func TestWithdrawWithoutCounterparty(t *testing.T) {
	db := store.MemStore()
	tokens := wrapped.NewLedger()
	ctrl := NewController(tokens)
	owner := weavetest.NewAddress()

	_, err := ctrl.Withdraw(atHeight(1), db, owner, owner, htlc.NewAmount(1))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, ctrl.Initialize(db, tokens.Address(), owner))
	_, err = ctrl.Withdraw(atHeight(1), db, owner, owner, htlc.NewAmount(1))
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestWithdrawStrandsOpenTransfer(t *testing.T) {
	f := newFixture(t, nil)
	open := f.initiate(t, 100)

	// the counterparty may take the balance of a transfer that is still open
	_, err := f.ctrl.Withdraw(atHeight(1001), f.db, f.counterparty, f.originator, htlc.NewAmount(100))
	assert.Nil(t, err)
	assertAmount(t, 0, f.locked(t, f.originator))
	assertAmount(t, 500, f.tokenBalance(t, f.originator))

	// the refund can no longer release the balance and changes nothing
	_, err = f.ctrl.Refund(atHeight(1051), f.db, open)
	assert.IsErr(t, ErrInsufficientBalance, err)
	assert.Equal(t, StateInitialized, f.state(t, open))
	assertAmount(t, 0, f.tokenBalance(t, BridgeAddress))

	// completing does not move value, so it still works before the deadline
	_, err = f.ctrl.Complete(atHeight(1050), f.db, open, f.preimage)
	assert.Nil(t, err)
	assert.Equal(t, StateCompleted, f.state(t, open))
}

func TestNilAmountsCountAsZero(t *testing.T) {
	f := newFixture(t, nil)

	_, _, err := f.ctrl.Initiate(atHeight(1000), f.db, f.originator,
		nil, nil, f.recipient, f.hashLock, 50)
	assert.IsErr(t, ErrZeroAmount, err)

	id, _, err := f.ctrl.Initiate(atHeight(1000), f.db, f.originator,
		nil, htlc.NewAmount(30), f.recipient, f.hashLock, 50)
	assert.Nil(t, err)
	assertAmount(t, 30, f.locked(t, f.originator))

	_, err = f.ctrl.Withdraw(atHeight(1001), f.db, f.counterparty, f.originator, nil)
	assert.Nil(t, err)
	assertAmount(t, 30, f.locked(t, f.originator))
	assert.Equal(t, StateInitialized, f.state(t, id))
}

func TestInitiateValidation(t *testing.T) {
	f := newFixture(t, nil)

	cases := map[string]struct {
		native, fungible *uint256.Int
		recipient        htlc.Bytes32
		hashLock         htlc.Bytes32
		delay            int64
		wantErr          *errors.Error
	}{
		"zero total": {
			native: htlc.ZeroAmount(), fungible: htlc.ZeroAmount(),
			recipient: f.recipient, hashLock: f.hashLock, delay: 10,
			wantErr: ErrZeroAmount,
		},
		"total overflows": {
			native: new(uint256.Int).SetAllOne(), fungible: htlc.NewAmount(1),
			recipient: f.recipient, hashLock: f.hashLock, delay: 10,
			wantErr: errors.ErrOverflow,
		},
		"short recipient": {
			native: htlc.ZeroAmount(), fungible: htlc.NewAmount(1),
			recipient: htlc.Bytes32{1, 2, 3}, hashLock: f.hashLock, delay: 10,
			wantErr: errors.ErrInput,
		},
		"negative delay": {
			native: htlc.ZeroAmount(), fungible: htlc.NewAmount(1),
			recipient: f.recipient, hashLock: f.hashLock, delay: -1,
			wantErr: errors.ErrInput,
		},
		"fungible above the allowance": {
			native: htlc.ZeroAmount(), fungible: htlc.NewAmount(501),
			recipient: f.recipient, hashLock: f.hashLock, delay: 10,
			wantErr: ErrValueTransferFailed,
		},
		"native not held by the bridge": {
			native: htlc.NewAmount(1), fungible: htlc.ZeroAmount(),
			recipient: f.recipient, hashLock: f.hashLock, delay: 10,
			wantErr: ErrValueTransferFailed,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, _, err := f.ctrl.Initiate(atHeight(1000), f.db, f.originator,
				tc.native, tc.fungible, tc.recipient, tc.hashLock, tc.delay)
			assert.IsErr(t, tc.wantErr, err)

			assertAmount(t, 0, f.locked(t, f.originator))
			assertAmount(t, 500, f.tokenBalance(t, f.originator))
			assertAmount(t, 0, f.tokenBalance(t, BridgeAddress))
		})
	}
}

func TestInitiateRequiresInitialization(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(wrapped.NewLedger())
	_, _, err := ctrl.Initiate(atHeight(1), db, weavetest.NewAddress(),
		htlc.ZeroAmount(), htlc.NewAmount(1),
		htlc.Bytes32(crypto.Keccak256(nil)), htlc.Bytes32(crypto.Keccak256(nil)), 1)
	assert.IsErr(t, ErrNotInitialized, err)
}

func TestInitiateWithNative(t *testing.T) {
	f := newFixture(t, nil)
	// the native value is attached by moving it to the bridge first
	assert.Nil(t, f.tokens.MoveNative(f.db, f.originator, BridgeAddress, htlc.NewAmount(30)))

	id, event, err := f.ctrl.Initiate(atHeight(1000), f.db, f.originator,
		htlc.NewAmount(30), htlc.NewAmount(70), f.recipient, f.hashLock, 5)
	assert.Nil(t, err)

	assert.Equal(t, EventInitiated, event.Name)
	for key, want := range map[string]string{
		"id":         htlc.Bytes32(id).String(),
		"originator": f.originator.String(),
		"recipient":  f.recipient.String(),
		"amount":     "100",
		"hash_lock":  f.hashLock.String(),
		"delay":      "5",
	} {
		got, ok := event.Attr(key)
		assert.True(t, ok, "missing attribute "+key)
		assert.Equal(t, want, got)
	}

	assertAmount(t, 100, f.locked(t, f.originator))
	assertAmount(t, 100, f.tokenBalance(t, BridgeAddress))
	native, err := f.tokens.NativeBalance(f.db, BridgeAddress)
	assert.Nil(t, err)
	assertAmount(t, 0, native)
}

func TestTransferIDsAreUnique(t *testing.T) {
	f := newFixture(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		// identical requests at the same height
		id := f.initiate(t, 1)
		if seen[string(id)] {
			t.Fatalf("duplicated id %X at request %d", id, i)
		}
		seen[string(id)] = true
	}

	ids, err := f.ctrl.Ledger().ByOriginator(f.db, f.originator)
	assert.Nil(t, err)
	assert.Equal(t, 50, len(ids))
}

func TestValueConservation(t *testing.T) {
	f := newFixture(t, nil)

	var in, refunded, withdrawn uint64
	var ids [][]byte
	for i := uint64(1); i <= 10; i++ {
		ids = append(ids, f.initiate(t, i*5))
		in += i * 5
	}
	for i, id := range ids {
		switch i % 3 {
		case 0:
			_, err := f.ctrl.Complete(atHeight(1020), f.db, id, f.preimage)
			assert.Nil(t, err)
		case 1:
			_, err := f.ctrl.Refund(atHeight(1100), f.db, id)
			assert.Nil(t, err)
			refunded += uint64(i+1) * 5
		}
	}
	_, err := f.ctrl.Withdraw(atHeight(1100), f.db, f.counterparty, f.originator, htlc.NewAmount(40))
	assert.Nil(t, err)
	withdrawn += 40

	locked := in - refunded - withdrawn
	assertAmount(t, locked, f.locked(t, f.originator))
	assertAmount(t, locked, f.tokenBalance(t, BridgeAddress))
	assertAmount(t, 500-locked, f.tokenBalance(t, f.originator))
}

// reentrantLedger calls back into the bridge while the bridge pushes value
// out.
type reentrantLedger struct {
	*wrapped.Ledger
	ctrl *Controller
	id   []byte

	entered     bool
	refundErr   error
	completeErr error
	preimage    htlc.Bytes32
}

func (r *reentrantLedger) Transfer(db htlc.KVStore, caller, to htlc.Address, amount *uint256.Int) (bool, error) {
	if !r.entered && r.id != nil {
		r.entered = true
		_, r.refundErr = r.ctrl.Refund(atHeight(2000), db, r.id)
		_, r.completeErr = r.ctrl.Complete(atHeight(1001), db, r.id, r.preimage)
	}
	return r.Ledger.Transfer(db, caller, to, amount)
}

func TestRefundReentrancy(t *testing.T) {
	var stub *reentrantLedger
	f := newFixture(t, func(l *wrapped.Ledger) FungibleLedger {
		stub = &reentrantLedger{Ledger: l}
		return stub
	})
	stub.ctrl = f.ctrl
	stub.preimage = f.preimage

	id := f.initiate(t, 100)
	stub.id = id

	_, err := f.ctrl.Refund(atHeight(2000), f.db, id)
	assert.Nil(t, err)
	assert.True(t, stub.entered, "ledger was not called")
	assert.IsErr(t, ErrAlreadyFinalized, stub.refundErr)
	assert.IsErr(t, ErrAlreadyFinalized, stub.completeErr)

	assert.Equal(t, StateRefunded, f.state(t, id))
	assertAmount(t, 0, f.locked(t, f.originator))
	assertAmount(t, 500, f.tokenBalance(t, f.originator))
	assertAmount(t, 0, f.tokenBalance(t, BridgeAddress))
}

// rejectingLedger refuses every push out of the bridge.
type rejectingLedger struct {
	*wrapped.Ledger
}

func (rejectingLedger) Transfer(htlc.KVStore, htlc.Address, htlc.Address, *uint256.Int) (bool, error) {
	return false, nil
}

func TestRefundRollback(t *testing.T) {
	f := newFixture(t, func(l *wrapped.Ledger) FungibleLedger {
		return rejectingLedger{Ledger: l}
	})
	id := f.initiate(t, 100)

	_, err := f.ctrl.Refund(atHeight(2000), f.db, id)
	assert.IsErr(t, ErrValueTransferFailed, err)

	// nothing of the failed refund is left behind
	assert.Equal(t, StateInitialized, f.state(t, id))
	assertAmount(t, 100, f.locked(t, f.originator))
	assertAmount(t, 100, f.tokenBalance(t, BridgeAddress))

	_, err = f.ctrl.Withdraw(atHeight(2000), f.db, f.counterparty, f.originator, htlc.NewAmount(100))
	assert.IsErr(t, ErrValueTransferFailed, err)
	assertAmount(t, 100, f.locked(t, f.originator))
}
