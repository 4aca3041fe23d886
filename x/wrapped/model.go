package wrapped

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// Account holds the balances of a single address. Both amounts are
// serialized as 32 byte big endian integers.
type Account struct {
	Native []byte
	Token  []byte
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Marshal() ([]byte, error) {
	return orm.Marshal(a)
}

func (a *Account) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, a)
}

// Validate ensures both amounts fit 256 bits.
func (a *Account) Validate() error {
	if _, err := htlc.AmountFromBytes(a.Native); err != nil {
		return errors.Field("Native", err, "invalid amount")
	}
	if _, err := htlc.AmountFromBytes(a.Token); err != nil {
		return errors.Field("Token", err, "invalid amount")
	}
	return nil
}

func (a *Account) native() *uint256.Int {
	v, _ := htlc.AmountFromBytes(a.Native)
	return v
}

func (a *Account) token() *uint256.Int {
	v, _ := htlc.AmountFromBytes(a.Token)
	return v
}

// Allowance is the amount a spender may still move out of the owner
// account.
type Allowance struct {
	Amount []byte
}

var _ orm.Model = (*Allowance)(nil)

func (a *Allowance) Marshal() ([]byte, error) {
	return orm.Marshal(a)
}

func (a *Allowance) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, a)
}

func (a *Allowance) Validate() error {
	if _, err := htlc.AmountFromBytes(a.Amount); err != nil {
		return errors.Field("Amount", err, "invalid amount")
	}
	return nil
}

// allowanceKey is the owner address followed by the spender address.
func allowanceKey(owner, spender htlc.Address) []byte {
	key := make([]byte, 0, len(owner)+len(spender))
	key = append(key, owner...)
	return append(key, spender...)
}

// Configuration is the on chain configuration of this extension.
type Configuration struct {
	// Minter is the only address allowed to issue native value.
	Minter htlc.Address `json:"minter"`
}

var _ orm.Model = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return orm.Marshal(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, c)
}

func (c *Configuration) Validate() error {
	if err := c.Minter.Validate(); err != nil {
		return errors.Field("Minter", err, "invalid address")
	}
	return nil
}
