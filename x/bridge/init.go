package bridge

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

const optKey = "bridge"

// Genesis is the bridge section of the genesis file.
type Genesis struct {
	Ledger       htlc.Address `json:"ledger"`
	Owner        htlc.Address `json:"owner"`
	Counterparty htlc.Address `json:"counterparty"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ htlc.Initializer = Initializer{}

// FromGenesis initializes the access control when the genesis carries a
// bridge section. Without it the bridge stays uninitialized and the first
// InitializeMsg sets it up.
func (Initializer) FromGenesis(opts htlc.Options, db htlc.KVStore) error {
	if _, ok := opts[optKey]; !ok {
		return nil
	}
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	var access AccessControl
	if err := access.Initialize(db, gen.Ledger, gen.Owner); err != nil {
		return errors.Wrap(err, "initialize")
	}
	if len(gen.Counterparty) == 0 {
		return nil
	}
	if err := access.SetCounterparty(db, gen.Owner, gen.Counterparty); err != nil {
		return errors.Wrap(err, "counterparty")
	}
	return nil
}
