package app

import (
	"encoding/binary"
	"encoding/json"
	"os"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Genesis file format, designed to be overlayed with tendermint genesis
type Genesis struct {
	ChainID    string       `json:"chain_id"`
	AppOptions htlc.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "unmarshal genesis file: %s", err)
	}
	return gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...htlc.Initializer) htlc.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []htlc.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts htlc.Options, kv htlc.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}

const chainIDKey = "_app:chainID"

// loadChainID returns the chain id stored if any
func loadChainID(kv htlc.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "load chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv htlc.KVStore, chainID string) error {
	if !htlc.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %q", chainID)
	}
	k := []byte(chainIDKey)
	switch has, err := kv.Has(k); {
	case err != nil:
		return errors.Wrap(err, "load chain id")
	case has:
		return errors.Wrap(errors.ErrDuplicate, "chain id already set")
	}
	return kv.Set(k, []byte(chainID))
}

const heightKey = "_app:height"

// loadHeight returns the height of the last delivered transaction or zero.
func loadHeight(kv htlc.ReadOnlyKVStore) (int64, error) {
	v, err := kv.Get([]byte(heightKey))
	if err != nil {
		return 0, errors.Wrap(err, "load height")
	}
	if len(v) != 8 {
		return 0, nil
	}
	return int64(binary.BigEndian.Uint64(v)), nil
}

func saveHeight(kv htlc.KVStore, height int64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(height))
	return kv.Set([]byte(heightKey), v)
}
