package wrapped

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

var (
	// LedgerAddress identifies this token.
	LedgerAddress = htlc.NewCondition("wrapped", "ledger", nil).Address()
	// ReserveAddress holds the native value backing all wrapped tokens.
	ReserveAddress = htlc.NewCondition("wrapped", "reserve", nil).Address()
)

// Ledger keeps the balances and allowances of all accounts.
type Ledger struct {
	accounts   orm.ModelBucket
	allowances orm.ModelBucket
}

// NewLedger returns a ledger operating on the "wrapped" buckets.
func NewLedger() *Ledger {
	return &Ledger{
		accounts:   orm.NewModelBucket("wacc", &Account{}),
		allowances: orm.NewModelBucket("wallow", &Allowance{}),
	}
}

// Address returns LedgerAddress.
func (l *Ledger) Address() htlc.Address {
	return LedgerAddress
}

// NativeBalance returns the native value held by an address.
func (l *Ledger) NativeBalance(db htlc.ReadOnlyKVStore, addr htlc.Address) (*uint256.Int, error) {
	acc, err := l.account(db, addr)
	if err != nil {
		return nil, err
	}
	return acc.native(), nil
}

// Balance returns the amount of tokens held by an address.
func (l *Ledger) Balance(db htlc.ReadOnlyKVStore, addr htlc.Address) (*uint256.Int, error) {
	acc, err := l.account(db, addr)
	if err != nil {
		return nil, err
	}
	return acc.token(), nil
}

// Allowance returns how many tokens spender can still move out of the owner
// account.
func (l *Ledger) Allowance(db htlc.ReadOnlyKVStore, owner, spender htlc.Address) (*uint256.Int, error) {
	var a Allowance
	switch err := l.allowances.One(db, allowanceKey(owner, spender), &a); {
	case errors.ErrNotFound.Is(err):
		return htlc.ZeroAmount(), nil
	case err != nil:
		return nil, err
	}
	return htlc.AmountFromBytes(a.Amount)
}

// IssueNative creates native value out of thin air. It is used by the
// genesis and by the minter only.
func (l *Ledger) IssueNative(db htlc.KVStore, to htlc.Address, amount *uint256.Int) error {
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	acc, err := l.account(db, to)
	if err != nil {
		return err
	}
	total, err := htlc.AddAmount(acc.native(), amount)
	if err != nil {
		return err
	}
	acc.Native = htlc.AmountBytes(total)
	return l.accounts.Put(db, to, acc)
}

// MoveNative moves native value between two accounts. It fails with
// ErrAmount when the source does not hold enough.
func (l *Ledger) MoveNative(db htlc.KVStore, from, to htlc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	return l.update(db, from, to, func(src, dst *Account) error {
		left, err := htlc.SubAmount(src.native(), amount)
		if err != nil {
			return errors.Wrapf(errors.ErrAmount, "insufficient native funds: %s", from)
		}
		src.Native = htlc.AmountBytes(left)
		total, err := htlc.AddAmount(dst.native(), amount)
		if err != nil {
			return err
		}
		dst.Native = htlc.AmountBytes(total)
		return nil
	})
}

// Deposit converts native value of the caller into the same amount of
// tokens credited to the caller.
func (l *Ledger) Deposit(db htlc.KVStore, caller htlc.Address, amount *uint256.Int) error {
	if err := l.MoveNative(db, caller, ReserveAddress, amount); err != nil {
		return err
	}
	return l.mint(db, caller, amount)
}

// Withdraw burns tokens of the caller and releases the same amount of
// native value to the caller.
func (l *Ledger) Withdraw(db htlc.KVStore, caller htlc.Address, amount *uint256.Int) error {
	acc, err := l.account(db, caller)
	if err != nil {
		return err
	}
	left, err := htlc.SubAmount(acc.token(), amount)
	if err != nil {
		return errors.Wrapf(errors.ErrAmount, "insufficient token funds: %s", caller)
	}
	acc.Token = htlc.AmountBytes(left)
	if err := l.accounts.Put(db, caller, acc); err != nil {
		return err
	}
	return l.MoveNative(db, ReserveAddress, caller, amount)
}

// Transfer moves tokens from the caller to another account. It returns
// false without changing anything when the caller balance is too low.
func (l *Ledger) Transfer(db htlc.KVStore, caller, to htlc.Address, amount *uint256.Int) (bool, error) {
	if err := to.Validate(); err != nil {
		return false, errors.Wrap(err, "recipient")
	}
	err := l.update(db, caller, to, func(src, dst *Account) error {
		return moveToken(src, dst, amount)
	})
	if errors.ErrAmount.Is(err) {
		return false, nil
	}
	return err == nil, err
}

// TransferFrom moves tokens from the owner account to another account on
// behalf of the spender. It returns false without changing anything when
// either the owner balance or the spender allowance is too low.
func (l *Ledger) TransferFrom(db htlc.KVStore, spender, owner, to htlc.Address, amount *uint256.Int) (bool, error) {
	if err := to.Validate(); err != nil {
		return false, errors.Wrap(err, "recipient")
	}
	allowed, err := l.Allowance(db, owner, spender)
	if err != nil {
		return false, err
	}
	left, err := htlc.SubAmount(allowed, amount)
	if err != nil {
		return false, nil
	}
	err = l.update(db, owner, to, func(src, dst *Account) error {
		return moveToken(src, dst, amount)
	})
	switch {
	case errors.ErrAmount.Is(err):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := l.Approve(db, owner, spender, left); err != nil {
		return false, err
	}
	return true, nil
}

// Approve sets the amount of tokens spender can move out of the owner
// account. It replaces any previous allowance.
func (l *Ledger) Approve(db htlc.KVStore, owner, spender htlc.Address, amount *uint256.Int) error {
	if err := spender.Validate(); err != nil {
		return errors.Wrap(err, "spender")
	}
	return l.allowances.Put(db, allowanceKey(owner, spender), &Allowance{Amount: htlc.AmountBytes(amount)})
}

// RegisterQuery exposes the accounts as "/wallets".
func (l *Ledger) RegisterQuery(qr htlc.QueryRouter) {
	l.accounts.Register("wallets", qr)
}

func (l *Ledger) mint(db htlc.KVStore, to htlc.Address, amount *uint256.Int) error {
	acc, err := l.account(db, to)
	if err != nil {
		return err
	}
	total, err := htlc.AddAmount(acc.token(), amount)
	if err != nil {
		return err
	}
	acc.Token = htlc.AmountBytes(total)
	return l.accounts.Put(db, to, acc)
}

// update loads two accounts, applies fn and saves both. Nothing is
// written when fn fails. A move to self is only checked.
func (l *Ledger) update(db htlc.KVStore, from, to htlc.Address, fn func(src, dst *Account) error) error {
	src, err := l.account(db, from)
	if err != nil {
		return err
	}
	if from.Equals(to) {
		// A move to self changes nothing but must still be covered.
		cp := *src
		return fn(src, &cp)
	}
	dst, err := l.account(db, to)
	if err != nil {
		return err
	}
	if err := fn(src, dst); err != nil {
		return err
	}
	if err := l.accounts.Put(db, from, src); err != nil {
		return err
	}
	return l.accounts.Put(db, to, dst)
}

// account returns the stored account or an empty one.
func (l *Ledger) account(db htlc.ReadOnlyKVStore, addr htlc.Address) (*Account, error) {
	var acc Account
	switch err := l.accounts.One(db, addr, &acc); {
	case errors.ErrNotFound.Is(err):
		return &Account{}, nil
	case err != nil:
		return nil, err
	}
	return &acc, nil
}

func moveToken(src, dst *Account, amount *uint256.Int) error {
	left, err := htlc.SubAmount(src.token(), amount)
	if err != nil {
		return errors.Wrap(errors.ErrAmount, "insufficient token funds")
	}
	src.Token = htlc.AmountBytes(left)
	total, err := htlc.AddAmount(dst.token(), amount)
	if err != nil {
		return err
	}
	dst.Token = htlc.AmountBytes(total)
	return nil
}
