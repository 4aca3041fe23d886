package bridge

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
	"github.com/iov-one/htlc/x/utils"
)

// Controller implements the bridge operations. Each operation is executed
// in a savepoint: on any error nothing is written.
type Controller struct {
	ledger  TransferLedger
	access  AccessControl
	gateway Gateway
	nonce   *orm.Sequence
}

// NewController returns a controller moving value through the given
// fungible ledger.
func NewController(ledger FungibleLedger) *Controller {
	tl := NewTransferLedger()
	nonce := tl.transfers.Sequence("nonce")
	return &Controller{
		ledger:  tl,
		access:  AccessControl{},
		gateway: NewGateway(ledger),
		nonce:   &nonce,
	}
}

// Ledger returns the transfer ledger.
func (c *Controller) Ledger() TransferLedger {
	return c.ledger
}

// Access returns the access control.
func (c *Controller) Access() AccessControl {
	return c.access
}

// Initialize sets the fungible ledger and the owner. It can be done only
// once.
func (c *Controller) Initialize(db htlc.KVStore, ledger, owner htlc.Address) error {
	return utils.Atomic(db, func(db htlc.KVStore) error {
		return c.access.Initialize(db, ledger, owner)
	})
}

// SetCounterparty registers the identity allowed to withdraw.
func (c *Controller) SetCounterparty(db htlc.KVStore, caller, counterparty htlc.Address) error {
	return utils.Atomic(db, func(db htlc.KVStore) error {
		return c.access.SetCounterparty(db, caller, counterparty)
	})
}

// TransferOwnership hands the owner role over.
func (c *Controller) TransferOwnership(db htlc.KVStore, caller, owner htlc.Address) error {
	return utils.Atomic(db, func(db htlc.KVStore) error {
		return c.access.TransferOwnership(db, caller, owner)
	})
}

// Initiate locks native and fungible value of the caller under the hash
// lock until delay blocks after the current height. The native amount must
// already be held by BridgeAddress. Nil amounts count as zero. It returns
// the id of the new transfer.
func (c *Controller) Initiate(
	ctx htlc.Context,
	db htlc.KVStore,
	caller htlc.Address,
	native, fungible *uint256.Int,
	recipient, hashLock htlc.Bytes32,
	delay int64,
) ([]byte, htlc.Event, error) {
	native, fungible = htlc.AmountOrZero(native), htlc.AmountOrZero(fungible)
	total, err := htlc.AddAmount(native, fungible)
	if err != nil {
		return nil, htlc.Event{}, errors.Wrap(err, "total amount")
	}
	if total.IsZero() {
		return nil, htlc.Event{}, errors.Wrap(ErrZeroAmount, "nothing to lock")
	}
	if caller.IsZero() {
		return nil, htlc.Event{}, errors.Wrap(ErrZeroAddress, "caller")
	}
	if err := recipient.Validate(); err != nil {
		return nil, htlc.Event{}, errors.Wrap(err, "recipient")
	}
	if err := hashLock.Validate(); err != nil {
		return nil, htlc.Event{}, errors.Wrap(err, "hash lock")
	}
	height := htlc.MustGetHeight(ctx)
	if delay < 0 {
		return nil, htlc.Event{}, errors.Wrapf(errors.ErrInput, "negative delay %d", delay)
	}
	if delay > math.MaxInt64-height {
		return nil, htlc.Event{}, errors.Wrapf(errors.ErrOverflow, "delay %d at height %d", delay, height)
	}

	var (
		id []byte
		t  *Transfer
	)
	err = utils.Atomic(db, func(db htlc.KVStore) error {
		if err := c.ready(db); err != nil {
			return err
		}
		if err := c.gateway.WrapNative(db, native); err != nil {
			return errors.Wrap(err, "wrap native")
		}
		if err := c.gateway.PullFrom(db, caller, fungible); err != nil {
			return errors.Wrap(err, "pull fungible")
		}
		if _, err := c.ledger.AdjustBalance(db, caller, total, false); err != nil {
			return errors.Wrap(err, "lock balance")
		}
		nonce, err := c.nonce.NextInt(db)
		if err != nil {
			return errors.Wrap(err, "nonce")
		}
		id = TransferID(caller, recipient, hashLock, delay, height, nonce)
		t = &Transfer{
			Amount:     htlc.AmountBytes(total),
			Originator: caller,
			Recipient:  recipient,
			HashLock:   hashLock,
			TimeLock:   height + delay,
			State:      StateInitialized,
		}
		return c.ledger.Record(db, id, t)
	})
	if err != nil {
		return nil, htlc.Event{}, err
	}

	htlc.GetLogger(ctx).Info("transfer initiated",
		"transfer", htlc.Bytes32(id).String(),
		"height", height,
		"originator", caller.String(),
		"amount", htlc.FormatAmount(total),
		"time_lock", t.TimeLock)
	return id, initiatedEvent(id, t, delay), nil
}

// Complete finalizes the transfer by revealing the pre-image of its hash
// lock. It is possible only up to and including the time lock height. The
// locked balance stays attributed to the originator until withdrawn.
func (c *Controller) Complete(ctx htlc.Context, db htlc.KVStore, id []byte, preimage htlc.Bytes32) (htlc.Event, error) {
	height := htlc.MustGetHeight(ctx)
	err := utils.Atomic(db, func(db htlc.KVStore) error {
		t, err := c.ledger.Get(db, id)
		if err != nil {
			return err
		}
		if t.State != StateInitialized {
			return errors.Wrapf(ErrAlreadyFinalized, "transfer is %s", t.State)
		}
		if !crypto.VerifyPreimage(preimage, t.HashLock) {
			return errors.Wrap(ErrInvalidSecret, "pre-image does not match the hash lock")
		}
		if height > t.TimeLock {
			return errors.Wrapf(ErrTimelockExpired, "height %d, time lock %d", height, t.TimeLock)
		}
		_, err = c.ledger.Transition(db, id, StateInitialized, StateCompleted)
		return err
	})
	if err != nil {
		return htlc.Event{}, err
	}

	htlc.GetLogger(ctx).Info("transfer completed",
		"transfer", htlc.Bytes32(id).String(),
		"height", height)
	return completedEvent(id, preimage), nil
}

// Refund returns the locked value to the originator once the time lock
// height has passed. Anyone can call it.
func (c *Controller) Refund(ctx htlc.Context, db htlc.KVStore, id []byte) (htlc.Event, error) {
	height := htlc.MustGetHeight(ctx)
	err := utils.Atomic(db, func(db htlc.KVStore) error {
		t, err := c.ledger.Get(db, id)
		if err != nil {
			return err
		}
		if t.State != StateInitialized {
			return errors.Wrapf(ErrAlreadyFinalized, "transfer is %s", t.State)
		}
		if height <= t.TimeLock {
			return errors.Wrapf(ErrTimelockNotExpired, "height %d, time lock %d", height, t.TimeLock)
		}
		// State must be final before the value leaves the bridge.
		if _, err := c.ledger.Transition(db, id, StateInitialized, StateRefunded); err != nil {
			return err
		}
		amount := t.LockedAmount()
		if _, err := c.ledger.AdjustBalance(db, t.Originator, amount, true); err != nil {
			return errors.Wrap(err, "release balance")
		}
		return c.gateway.PushTo(db, t.Originator, amount)
	})
	if err != nil {
		return htlc.Event{}, err
	}

	htlc.GetLogger(ctx).Info("transfer refunded",
		"transfer", htlc.Bytes32(id).String(),
		"height", height)
	return refundedEvent(id), nil
}

// Withdraw releases value attributed to the originator. Only the
// counterparty can withdraw. A nil amount counts as zero.
func (c *Controller) Withdraw(ctx htlc.Context, db htlc.KVStore, caller, originator htlc.Address, amount *uint256.Int) (htlc.Event, error) {
	amount = htlc.AmountOrZero(amount)
	err := utils.Atomic(db, func(db htlc.KVStore) error {
		ok, err := c.access.IsCounterparty(db, caller)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(errors.ErrUnauthorized, "%s is not the counterparty", caller)
		}
		if _, err := c.ledger.AdjustBalance(db, originator, amount, true); err != nil {
			return err
		}
		return c.gateway.PushTo(db, originator, amount)
	})
	if err != nil {
		return htlc.Event{}, err
	}

	htlc.GetLogger(ctx).Info("balance withdrawn",
		"originator", originator.String(),
		"amount", htlc.FormatAmount(amount))
	return withdrawnEvent(originator, amount), nil
}

// ready ensures the bridge is initialized with the ledger the gateway is
// talking to.
func (c *Controller) ready(db htlc.ReadOnlyKVStore) error {
	conf, err := c.access.Config(db)
	if err != nil {
		return err
	}
	if !conf.Ledger.Equals(c.gateway.Ledger()) {
		return errors.Wrapf(ErrValueTransferFailed, "configured ledger %s, gateway ledger %s", conf.Ledger, c.gateway.Ledger())
	}
	return nil
}
