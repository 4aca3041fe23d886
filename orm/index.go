package orm

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Indexer calculates the secondary index key of a model. A nil key means
// the model is not indexed.
type Indexer func(Model) ([]byte, error)

// index is a non unique secondary index. Each entry is stored under
//   _i.<bucket>_<name>:<len(index key)><index key><primary key>
// with the primary key as the value, so that all entries for one index key
// form a prefix.
type index struct {
	name    string
	prefix  []byte
	indexer Indexer
	bucket  Bucket
}

func newIndex(b Bucket, name string, indexer Indexer) *index {
	return &index{
		name:    name,
		prefix:  []byte("_i." + b.Name() + "_" + name + ":"),
		indexer: indexer,
		bucket:  b,
	}
}

func (i *index) entryPrefix(indexKey []byte) ([]byte, error) {
	if len(indexKey) > 255 {
		return nil, errors.Wrapf(ErrInvalidIndex, "%s: key too long", i.name)
	}
	out := make([]byte, 0, len(i.prefix)+1+len(indexKey))
	out = append(out, i.prefix...)
	out = append(out, byte(len(indexKey)))
	return append(out, indexKey...), nil
}

func (i *index) entry(indexKey, pk []byte) ([]byte, error) {
	p, err := i.entryPrefix(indexKey)
	if err != nil {
		return nil, err
	}
	return append(p, pk...), nil
}

// update moves the index entry of the primary key from the prev model to
// the next one. Either can be nil.
func (i *index) update(db htlc.KVStore, pk []byte, prev, next Model) error {
	var prevKey, nextKey []byte
	var err error
	if prev != nil {
		if prevKey, err = i.indexer(prev); err != nil {
			return errors.Wrapf(err, "index %s", i.name)
		}
	}
	if next != nil {
		if nextKey, err = i.indexer(next); err != nil {
			return errors.Wrapf(err, "index %s", i.name)
		}
	}
	if prev != nil && next != nil && string(prevKey) == string(nextKey) {
		return nil
	}
	if prevKey != nil {
		k, err := i.entry(prevKey, pk)
		if err != nil {
			return err
		}
		if err := db.Delete(k); err != nil {
			return err
		}
	}
	if nextKey != nil {
		k, err := i.entry(nextKey, pk)
		if err != nil {
			return err
		}
		if err := db.Set(k, pk); err != nil {
			return err
		}
	}
	return nil
}

// keys returns the primary keys of all models indexed under indexKey, in
// primary key order.
func (i *index) keys(db htlc.ReadOnlyKVStore, indexKey []byte) ([][]byte, error) {
	p, err := i.entryPrefix(indexKey)
	if err != nil {
		return nil, err
	}
	models, err := queryPrefix(db, p)
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, len(models))
	for n, m := range models {
		keys[n] = m.Value
	}
	return keys, nil
}

// Query returns all models stored under the index key passed as data.
func (i *index) Query(db htlc.ReadOnlyKVStore, mod string, data []byte) ([]htlc.Model, error) {
	if mod != htlc.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
	keys, err := i.keys(db, data)
	if err != nil {
		return nil, err
	}
	var res []htlc.Model
	for _, k := range keys {
		raw, err := i.bucket.Get(db, k)
		if err != nil {
			return nil, err
		}
		res = append(res, htlc.Pair(i.bucket.DBKey(k), raw))
	}
	return res, nil
}
