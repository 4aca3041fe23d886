package app

import (
	"context"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/weavetest"
	"github.com/iov-one/htlc/weavetest/assert"
	"github.com/iov-one/htlc/x/utils"
)

func TestChain(t *testing.T) {
	c1 := &weavetest.Decorator{}
	c2 := &weavetest.Decorator{}
	c3 := &weavetest.Decorator{}
	var nilDecorator *weavetest.Decorator
	h := &weavetest.Handler{}

	stack := ChainDecorators(
		c1,
		utils.NewLogging(),
		nilDecorator,
		utils.NewRecovery(),
		c2,
		panicAtHeight(6),
		c3,
	).WithHandler(h)

	bg := context.Background()
	db := store.MemStore()

	_, err := stack.Check(htlc.WithHeight(bg, 4), db, nil)
	assert.Nil(t, err)
	_, err = stack.Deliver(htlc.WithHeight(bg, 4), db, nil)
	assert.Nil(t, err)

	assert.Equal(t, 2, c1.CallCount())
	assert.Equal(t, 2, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())

	// now, let's trigger a panic
	ctx := htlc.WithHeight(bg, 8)
	_, err = stack.Check(ctx, db, nil)
	assert.IsErr(t, errors.ErrPanic, err)
	_, err = stack.Deliver(ctx, db, nil)
	assert.IsErr(t, errors.ErrPanic, err)

	assert.Equal(t, 4, c1.CallCount())
	assert.Equal(t, 4, c2.CallCount())
	// the panic happens before c3 is reached
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())
}

// panicAtHeight panics when the context height is above the limit.
type panicAtHeight int64

var _ htlc.Decorator = panicAtHeight(0)

func (p panicAtHeight) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx, next htlc.Checker) (*htlc.CheckResult, error) {
	if htlc.MustGetHeight(ctx) > int64(p) {
		panic("too high")
	}
	return next.Check(ctx, db, tx)
}

func (p panicAtHeight) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx, next htlc.Deliverer) (*htlc.DeliverResult, error) {
	if htlc.MustGetHeight(ctx) > int64(p) {
		panic("too high")
	}
	return next.Deliver(ctx, db, tx)
}
