package orm

import (
	"github.com/iov-one/htlc"
)

// ConsumeIterator will read all remaining data into an
// array and close the iterator
func ConsumeIterator(itr htlc.Iterator) ([]htlc.Model, error) {
	defer itr.Close()

	var res []htlc.Model
	for itr.Valid() {
		res = append(res, htlc.Pair(itr.Key(), itr.Value()))
		if err := itr.Next(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// queryPrefix returns all models whose key starts with prefix.
func queryPrefix(db htlc.ReadOnlyKVStore, prefix []byte) ([]htlc.Model, error) {
	itr, err := db.Iterator(prefixRange(prefix))
	if err != nil {
		return nil, err
	}
	return ConsumeIterator(itr)
}

// prefixRange turns a prefix into the [start, end) range holding all keys
// with that prefix.
func prefixRange(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	start := append([]byte{}, prefix...)
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return start, end[:i+1]
		}
	}
	// prefix made of 0xFF bytes only, no upper bound
	return start, nil
}
