package weavetest

import "github.com/iov-one/htlc"

// Handler is a mock implementation of the htlc.Handler interface.
//
// If Key is set, both Check and Deliver write Key/Value to the store
// before returning, regardless of the configured error. This allows to
// test that a failed call does not leave anything behind.
type Handler struct {
	checkCall   int
	CheckResult htlc.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult htlc.DeliverResult
	DeliverErr    error

	Key   []byte
	Value []byte
}

var _ htlc.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	h.checkCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	h.deliverCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) write(db htlc.KVStore) error {
	if h.Key == nil {
		return nil
	}
	return db.Set(h.Key, h.Value)
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
