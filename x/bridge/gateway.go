package bridge

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// BridgeAddress is the account the bridge holds the locked value on.
var BridgeAddress = htlc.NewCondition("bridge", "htlc", []byte("initiator")).Address()

// FungibleLedger is the external wrapped-native token. Transfers report
// a rejected movement by returning false.
type FungibleLedger interface {
	// Address identifies the ledger.
	Address() htlc.Address
	// Deposit converts native value held by the caller into tokens
	// credited to the caller.
	Deposit(db htlc.KVStore, caller htlc.Address, amount *uint256.Int) error
	Transfer(db htlc.KVStore, caller, to htlc.Address, amount *uint256.Int) (bool, error)
	TransferFrom(db htlc.KVStore, spender, owner, to htlc.Address, amount *uint256.Int) (bool, error)
}

// NativeMover moves native value attached to a call.
type NativeMover interface {
	MoveNative(db htlc.KVStore, from, to htlc.Address, amount *uint256.Int) error
}

// Gateway is the only component calling the fungible ledger. Every failure
// of the ledger is reported as ErrValueTransferFailed.
type Gateway struct {
	ledger FungibleLedger
}

// NewGateway returns a gateway over the given ledger.
func NewGateway(ledger FungibleLedger) Gateway {
	return Gateway{ledger: ledger}
}

// Ledger returns the address of the wrapped ledger.
func (g Gateway) Ledger() htlc.Address {
	return g.ledger.Address()
}

// WrapNative converts native value held by the bridge into tokens. A zero
// amount is a no-op.
func (g Gateway) WrapNative(db htlc.KVStore, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := g.ledger.Deposit(db, BridgeAddress, amount); err != nil {
		return errors.Wrap(ErrValueTransferFailed, err.Error())
	}
	return nil
}

// PullFrom moves tokens from the account to the bridge using the allowance
// the account granted to the bridge. A zero amount is skipped.
func (g Gateway) PullFrom(db htlc.KVStore, from htlc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	ok, err := g.ledger.TransferFrom(db, BridgeAddress, from, BridgeAddress, amount)
	if err != nil {
		return errors.Wrap(ErrValueTransferFailed, err.Error())
	}
	if !ok {
		return errors.Wrapf(ErrValueTransferFailed, "pull %s from %s", htlc.FormatAmount(amount), from)
	}
	return nil
}

// PushTo moves tokens from the bridge to the account.
func (g Gateway) PushTo(db htlc.KVStore, to htlc.Address, amount *uint256.Int) error {
	ok, err := g.ledger.Transfer(db, BridgeAddress, to, amount)
	if err != nil {
		return errors.Wrap(ErrValueTransferFailed, err.Error())
	}
	if !ok {
		return errors.Wrapf(ErrValueTransferFailed, "push %s to %s", htlc.FormatAmount(amount), to)
	}
	return nil
}
