package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Bucket is a prefixed subspace of the DB holding raw values.
//
// This is a generic building block that should generally
// be wrapped by a ModelBucket to ensure all data is the same type.
type Bucket struct {
	name   string
	prefix []byte
}

var _ htlc.QueryHandler = Bucket{}

// NewBucket creates a bucket to store data
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the bucket name.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix.
// A new slice is allocated on every call, appending to the prefix would
// make consecutive calls share the same backing array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get returns the raw value stored under the key, nil if missing.
func (b Bucket) Get(db htlc.ReadOnlyKVStore, key []byte) ([]byte, error) {
	return db.Get(b.DBKey(key))
}

// Has returns true if a value is stored under the key.
func (b Bucket) Has(db htlc.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Set writes a raw value.
func (b Bucket) Set(db htlc.KVStore, key, value []byte) error {
	return db.Set(b.DBKey(key), value)
}

// Delete will remove the value at a key
func (b Bucket) Delete(db htlc.KVStore, key []byte) error {
	return db.Delete(b.DBKey(key))
}

// Query handles queries from the QueryRouter
func (b Bucket) Query(db htlc.ReadOnlyKVStore, mod string, data []byte) ([]htlc.Model, error) {
	switch mod {
	case htlc.KeyQueryMod:
		key := b.DBKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, nil
		}
		return []htlc.Model{htlc.Pair(key, value)}, nil
	case htlc.PrefixQueryMod:
		return queryPrefix(db, b.DBKey(data))
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}

// Sequence returns a Sequence by name
func (b Bucket) Sequence(name string) Sequence {
	return NewSequence(b.name, name)
}
