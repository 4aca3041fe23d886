package wrapped

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/gconf"
)

const optKey = "wrapped"

// GenesisAccount is used to parse the json from genesis file.
// Amounts are base 10 strings so that values above 2^64 can be expressed.
type GenesisAccount struct {
	Address htlc.Address `json:"address"`
	Native  string       `json:"native"`
	Token   string       `json:"token"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ htlc.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database. Tokens are backed by native value held by
// the reserve.
func (Initializer) FromGenesis(opts htlc.Options, kv htlc.KVStore) error {
	var conf Configuration
	if err := gconf.InitConfig(kv, opts, packageName, &conf); err != nil {
		return errors.Wrap(err, "init config")
	}

	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	ledger := NewLedger()
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		native, err := parseGenesisAmount(acct.Native)
		if err != nil {
			return errors.Wrapf(err, "account %d: native", i)
		}
		token, err := parseGenesisAmount(acct.Token)
		if err != nil {
			return errors.Wrapf(err, "account %d: token", i)
		}
		if err := ledger.IssueNative(kv, acct.Address, native); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if token.IsZero() {
			continue
		}
		if err := ledger.IssueNative(kv, acct.Address, token); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if err := ledger.Deposit(kv, acct.Address, token); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}
	return nil
}

func parseGenesisAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return htlc.ZeroAmount(), nil
	}
	return htlc.ParseAmount(s)
}
