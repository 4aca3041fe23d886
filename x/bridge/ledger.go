package bridge

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

const (
	transferBucket = "transfer"
	balanceBucket  = "balance"

	// OriginatorIndex groups transfers by their originator.
	OriginatorIndex = "originator"
)

// TransferLedger keeps all transfers and the per account locked balance.
// It is the only place the bridge state is written.
type TransferLedger struct {
	transfers orm.ModelBucket
	balances  orm.ModelBucket
}

// NewTransferLedger returns a ledger operating on the bridge buckets.
func NewTransferLedger() TransferLedger {
	return TransferLedger{
		transfers: orm.NewModelBucket(transferBucket, &Transfer{},
			orm.WithIndex(OriginatorIndex, originatorIndexer)),
		balances: orm.NewModelBucket(balanceBucket, &Balance{}),
	}
}

func originatorIndexer(m orm.Model) ([]byte, error) {
	t, ok := m.(*Transfer)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return t.Originator, nil
}

// Record stores a new transfer. Transfer ids are never reused.
func (l TransferLedger) Record(db htlc.KVStore, id []byte, t *Transfer) error {
	switch err := l.transfers.Has(db, id); {
	case err == nil:
		return errors.Wrapf(ErrDuplicateID, "%X", id)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return l.transfers.Put(db, id, t)
}

// Get returns the transfer stored under id.
func (l TransferLedger) Get(db htlc.ReadOnlyKVStore, id []byte) (*Transfer, error) {
	var t Transfer
	if err := l.transfers.One(db, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Transition moves the transfer from one state to the next. It fails
// unless the transfer is currently in the from state and the move is one
// of the allowed lifecycle transitions.
func (l TransferLedger) Transition(db htlc.KVStore, id []byte, from, to State) (*Transfer, error) {
	if !allowedTransition(from, to) {
		return nil, errors.Wrapf(ErrInvalidStateTransition, "%s to %s", from, to)
	}
	t, err := l.Get(db, id)
	if err != nil {
		return nil, err
	}
	if t.State != from {
		return nil, errors.Wrapf(ErrInvalidStateTransition, "transfer %X is %s, not %s", id, t.State, from)
	}
	t.State = to
	if err := l.transfers.Put(db, id, t); err != nil {
		return nil, err
	}
	return t, nil
}

func allowedTransition(from, to State) bool {
	return from == StateInitialized && (to == StateCompleted || to == StateRefunded)
}

// Balance returns the amount locked by an account. Unknown accounts have
// a zero balance.
func (l TransferLedger) Balance(db htlc.ReadOnlyKVStore, account htlc.Address) (*uint256.Int, error) {
	var b Balance
	switch err := l.balances.One(db, account, &b); {
	case errors.ErrNotFound.Is(err):
		return htlc.ZeroAmount(), nil
	case err != nil:
		return nil, err
	}
	return htlc.AmountFromBytes(b.Amount)
}

// AdjustBalance adds delta to the account balance, or subtracts it when
// decrease is set. The balance never goes below zero.
func (l TransferLedger) AdjustBalance(db htlc.KVStore, account htlc.Address, delta *uint256.Int, decrease bool) (*uint256.Int, error) {
	current, err := l.Balance(db, account)
	if err != nil {
		return nil, err
	}
	var next *uint256.Int
	if decrease {
		if next, err = htlc.SubAmount(current, delta); err != nil {
			return nil, errors.Wrapf(ErrInsufficientBalance, "%s has %s, want %s",
				account, htlc.FormatAmount(current), htlc.FormatAmount(delta))
		}
	} else if next, err = htlc.AddAmount(current, delta); err != nil {
		return nil, err
	}
	if err := l.balances.Put(db, account, &Balance{Amount: htlc.AmountBytes(next)}); err != nil {
		return nil, err
	}
	return next, nil
}

// ByOriginator returns the ids of all transfers created by an account.
func (l TransferLedger) ByOriginator(db htlc.ReadOnlyKVStore, originator htlc.Address) ([][]byte, error) {
	return l.transfers.ByIndex(db, OriginatorIndex, originator)
}

// RegisterQuery exposes the transfers as "/transfers", the transfers by
// originator as "/transfers/originator" and the balances as "/balances".
func (l TransferLedger) RegisterQuery(qr htlc.QueryRouter) {
	l.transfers.Register("transfers", qr)
	l.balances.Register("balances", qr)
}
