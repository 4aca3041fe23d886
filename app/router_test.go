package app

import (
	"context"
	"testing"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/weavetest"
	"github.com/iov-one/htlc/weavetest/assert"
)

func TestRouter(t *testing.T) {
	var (
		ctx = context.Background()
		db  = store.MemStore()
		r   = NewRouter()
	)

	good := &weavetest.Handler{}
	bad := &weavetest.Handler{DeliverErr: errors.ErrState}
	r.Handle("bridge/good", good)
	r.Handle("bridge/bad", bad)

	// make sure invalid registrations panic
	assert.Panics(t, func() { r.Handle("bridge/good", good) })
	assert.Panics(t, func() { r.Handle("l:7", good) })

	tx := func(path string) *weavetest.Tx {
		return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: path}}
	}

	_, err := r.Check(ctx, db, tx("bridge/good"))
	assert.Nil(t, err)
	_, err = r.Deliver(ctx, db, tx("bridge/good"))
	assert.Nil(t, err)
	assert.Equal(t, 2, good.CallCount())

	_, err = r.Deliver(ctx, db, tx("bridge/bad"))
	assert.IsErr(t, errors.ErrState, err)
	assert.Equal(t, 1, bad.CallCount())

	// not found returns an error as well
	_, err = r.Deliver(ctx, db, tx("bridge/missing"))
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = r.Check(ctx, db, tx("bridge/missing"))
	assert.IsErr(t, errors.ErrNotFound, err)

	// a transaction without a message is rejected
	_, err = r.Deliver(ctx, db, &weavetest.Tx{Err: errors.ErrEmpty})
	assert.IsErr(t, errors.ErrEmpty, err)
	assert.Equal(t, 2, good.CallCount())
}
