package main

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
)

const seedSize = 32

var isValidKeyName = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,32}$`).MatchString

// loadOrCreateKey returns the named key from the keys directory. A missing
// key is generated and stored.
func loadOrCreateKey(dir, name string) (*crypto.PrivateKey, error) {
	if !isValidKeyName(name) {
		return nil, errors.Wrapf(errors.ErrInput, "key name %q", name)
	}
	path := filepath.Join(dir, name+".key")

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil || len(seed) != seedSize {
			return nil, errors.Wrapf(errors.ErrInput, "malformed key file %s", path)
		}
		return crypto.PrivKeyEd25519FromSeed(seed), nil
	case !os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}

	key := crypto.GenPrivKeyEd25519()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	seed := hex.EncodeToString(key.Ed25519[:seedSize])
	if err := os.WriteFile(path, []byte(seed+"\n"), 0600); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return key, nil
}
