package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/htlc/errors"
)

// cachedItems returns a snapshot of all btree entries with
// start <= key < end, in ascending order. The snapshot keeps the iterator
// stable while the cache is written to.
func cachedItems(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	collect := func(i btree.Item) bool {
		items = append(items, i.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// mergedIterator joins the cached items with those of the parent store,
// taking into consideration overwrites and deletes.
type mergedIterator struct {
	items   []keyer
	idx     int
	parent  Iterator
	reverse bool
}

var _ Iterator = (*mergedIterator)(nil)

func newMergedIterator(items []keyer, parent Iterator, reverse bool) (*mergedIterator, error) {
	it := &mergedIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
	if err := it.skipDeleted(); err != nil {
		it.Close()
		return nil, err
	}
	return it, nil
}

// Valid implements Iterator and returns true iff it can be read
func (i *mergedIterator) Valid() bool {
	return i.ourValid() || i.parentValid()
}

// Next moves the iterator to the next sequential key, as defined by the
// order of iteration.
func (i *mergedIterator) Next() error {
	switch i.first() {
	case us:
		i.idx++
	case both:
		i.idx++
		if err := i.parent.Next(); err != nil {
			return err
		}
	case parent:
		if err := i.parent.Next(); err != nil {
			return err
		}
	default:
		return errors.ErrIteratorDone
	}
	return i.skipDeleted()
}

// Key returns the key of the cursor.
func (i *mergedIterator) Key() []byte {
	switch i.first() {
	case us, both:
		return i.items[i.idx].Key()
	case parent:
		return i.parent.Key()
	default:
		panic("Advanced past the end!")
	}
}

// Value returns the value of the cursor.
func (i *mergedIterator) Value() []byte {
	switch i.first() {
	case us, both:
		return i.items[i.idx].(setItem).value
	case parent:
		return i.parent.Value()
	default:
		panic("Advanced past the end!")
	}
}

// Close releases the Iterator.
func (i *mergedIterator) Close() {
	i.items = nil
	if i.parent != nil {
		i.parent.Close()
	}
}

// skipDeleted advances over all cached deletes, together with the parent
// entry they hide.
func (i *mergedIterator) skipDeleted() error {
	for {
		src := i.first()
		if src != us && src != both {
			return nil
		}
		if _, ok := i.items[i.idx].(deletedItem); !ok {
			return nil
		}
		i.idx++
		if src == both {
			if err := i.parent.Next(); err != nil {
				return err
			}
		}
	}
}

// first selects the iterator that holds the next key in iteration order.
func (i *mergedIterator) first() source {
	if !i.parentValid() {
		if !i.ourValid() {
			return none
		}
		return us
	}
	if !i.ourValid() {
		return parent
	}

	cmp := bytes.Compare(i.parent.Key(), i.items[i.idx].Key())
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}

func (i *mergedIterator) ourValid() bool {
	return i.idx < len(i.items)
}

func (i *mergedIterator) parentValid() bool {
	return i.parent != nil && i.parent.Valid()
}
