package bridge

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/gconf"
)

// packageName is the gconf key of the Configuration.
const packageName = "bridge"

// AccessControl manages the owner and counterparty identities.
type AccessControl struct{}

// Config returns the current configuration. It fails with
// ErrNotInitialized before Initialize was called.
func (AccessControl) Config(db htlc.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, packageName, &conf); {
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(ErrNotInitialized, "no configuration")
	case err != nil:
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

// Initialize sets the ledger and the owner. It can be called only once.
func (a AccessControl) Initialize(db htlc.KVStore, ledger, owner htlc.Address) error {
	switch _, err := a.Config(db); {
	case err == nil:
		return errors.Wrap(ErrAlreadyInitialized, "owner already set")
	case !ErrNotInitialized.Is(err):
		return err
	}
	if ledger.IsZero() {
		return errors.Wrap(ErrZeroAddress, "ledger")
	}
	if owner.IsZero() {
		return errors.Wrap(ErrZeroAddress, "owner")
	}
	conf := Configuration{
		Ledger:      ledger,
		Owner:       owner,
		Initialized: true,
	}
	return gconf.Save(db, packageName, &conf)
}

// SetCounterparty registers the only identity allowed to withdraw. Only
// the owner can set it.
func (a AccessControl) SetCounterparty(db htlc.KVStore, caller, counterparty htlc.Address) error {
	conf, err := a.owned(db, caller)
	if err != nil {
		return err
	}
	if counterparty.IsZero() {
		return errors.Wrap(ErrZeroAddress, "counterparty")
	}
	conf.Counterparty = counterparty
	return gconf.Save(db, packageName, conf)
}

// TransferOwnership hands the owner role over to another identity. Only
// the owner can do it.
func (a AccessControl) TransferOwnership(db htlc.KVStore, caller, owner htlc.Address) error {
	conf, err := a.owned(db, caller)
	if err != nil {
		return err
	}
	if owner.IsZero() {
		return errors.Wrap(ErrZeroAddress, "owner")
	}
	conf.Owner = owner
	return gconf.Save(db, packageName, conf)
}

// IsCounterparty returns true if the caller is the registered
// counterparty. Nobody is the counterparty until the owner sets one.
func (a AccessControl) IsCounterparty(db htlc.ReadOnlyKVStore, caller htlc.Address) (bool, error) {
	conf, err := a.Config(db)
	switch {
	case ErrNotInitialized.Is(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return len(conf.Counterparty) != 0 && conf.Counterparty.Equals(caller), nil
}

func (a AccessControl) owned(db htlc.KVStore, caller htlc.Address) (*Configuration, error) {
	conf, err := a.Config(db)
	if err != nil {
		return nil, err
	}
	if !conf.Owner.Equals(caller) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not the owner", caller)
	}
	return conf, nil
}
