package orm

import (
	"fmt"
	"reflect"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	htlc.Persistent
	Validate() error
}

// ModelBucket stores models of a single type under their primary key and
// keeps all registered secondary indexes up to date.
type ModelBucket struct {
	b       Bucket
	model   reflect.Type
	indexes map[string]*index
}

// ModelBucketOption configures a ModelBucket on creation.
type ModelBucketOption func(*ModelBucket)

// WithIndex registers a non unique secondary index.
func WithIndex(name string, indexer Indexer) ModelBucketOption {
	return func(mb *ModelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("Index %s registered twice", name))
		}
		mb.indexes[name] = newIndex(mb.b, name, indexer)
	}
}

// NewModelBucket returns a bucket for models of the same type as proto.
func NewModelBucket(name string, proto Model, opts ...ModelBucketOption) ModelBucket {
	mb := ModelBucket{
		b:       NewBucket(name),
		model:   reflect.TypeOf(proto),
		indexes: make(map[string]*index),
	}
	for _, fn := range opts {
		fn(&mb)
	}
	return mb
}

// One loads the model stored under the primary key into dest.
// It returns ErrNotFound if the entity does not exist, ErrType if dest is
// not of the bucket model type.
func (mb ModelBucket) One(db htlc.ReadOnlyKVStore, key []byte, dest Model) error {
	if t := reflect.TypeOf(dest); t != mb.model {
		return errors.Wrapf(errors.ErrType, "%s bucket cannot load %s", mb.b.name, t)
	}
	raw, err := mb.b.Get(db, key)
	if err != nil {
		return errors.Wrap(err, "cannot load")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.b.name, key)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "%s %X", mb.b.name, key)
	}
	return nil
}

// Has returns nil if an entity is stored under the key, ErrNotFound
// otherwise.
func (mb ModelBucket) Has(db htlc.ReadOnlyKVStore, key []byte) error {
	ok, err := mb.b.Has(db, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.b.name, key)
	}
	return nil
}

// Put validates and saves the model under the primary key.
func (mb ModelBucket) Put(db htlc.KVStore, key []byte, m Model) error {
	if t := reflect.TypeOf(m); t != mb.model {
		return errors.Wrapf(errors.ErrType, "%s bucket cannot store %s", mb.b.name, t)
	}
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot serialize")
	}
	if err := mb.updateIndexes(db, key, m); err != nil {
		return err
	}
	return mb.b.Set(db, key, raw)
}

// Delete removes an entity with given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (mb ModelBucket) Delete(db htlc.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := mb.updateIndexes(db, key, nil); err != nil {
		return err
	}
	return mb.b.Delete(db, key)
}

// ByIndex returns the primary keys of all models indexed under indexKey.
func (mb ModelBucket) ByIndex(db htlc.ReadOnlyKVStore, indexName string, indexKey []byte) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrap(ErrInvalidIndex, indexName)
	}
	return idx.keys(db, indexKey)
}

// Register adds the bucket and all its indexes to the query router.
// An empty name defaults to the bucket name.
func (mb ModelBucket) Register(name string, r htlc.QueryRouter) {
	if name == "" {
		name = mb.b.name
	}
	root := "/" + name
	r.Register(root, mb.b)
	for n, idx := range mb.indexes {
		r.Register(root+"/"+n, idx)
	}
}

// Sequence returns a Sequence by name
func (mb ModelBucket) Sequence(name string) Sequence {
	return mb.b.Sequence(name)
}

// Bucket returns the underlying raw bucket.
func (mb ModelBucket) Bucket() Bucket {
	return mb.b
}

func (mb ModelBucket) updateIndexes(db htlc.KVStore, key []byte, next Model) error {
	if len(mb.indexes) == 0 {
		return nil
	}
	var prev Model
	raw, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if raw != nil {
		prev = reflect.New(mb.model.Elem()).Interface().(Model)
		if err := prev.Unmarshal(raw); err != nil {
			return errors.Wrap(err, "cannot load previous")
		}
	}
	for _, idx := range mb.indexes {
		if err := idx.update(db, key, prev, next); err != nil {
			return err
		}
	}
	return nil
}
