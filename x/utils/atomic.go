package utils

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Atomic runs fn against a cache wrap of db. Changes made by fn are
// written to db only if fn returns no error, otherwise all of them are
// discarded. A store that cannot be cache wrapped is rejected.
func Atomic(db htlc.KVStore, fn func(htlc.KVStore) error) error {
	cstore, ok := db.(htlc.CacheableKVStore)
	if !ok {
		return errors.Wrapf(errors.ErrHuman, "store %T does not support savepoints", db)
	}

	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "writing savepoint")
	}
	return nil
}
