package weavetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
)

func TestSequenceID(t *testing.T) {
	cases := map[uint64][]byte{
		0:     {0, 0, 0, 0, 0, 0, 0, 0},
		1:     {0, 0, 0, 0, 0, 0, 0, 1},
		256:   {0, 0, 0, 0, 0, 0, 1, 0},
		65535: {0, 0, 0, 0, 0, 0, 0xff, 0xff},
	}
	for n, want := range cases {
		if got := SequenceID(n); !bytes.Equal(want, got) {
			t.Errorf("%d: want %x, got %x", n, want, got)
		}
	}
}

func TestNewConditionIsUnique(t *testing.T) {
	a, b := NewCondition(), NewCondition()
	if a.Equals(b) {
		t.Fatal("conditions must be unique")
	}
	if a.Address().Equals(b.Address()) {
		t.Fatal("addresses must be unique")
	}
}

func TestDecoratedHandler(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()

	h := &Handler{Key: []byte("k"), Value: []byte("v")}
	d := &Decorator{DeliverErr: errors.ErrState}
	hn := Decorate(h, d)

	if _, err := hn.Check(ctx, db, &Tx{}); err != nil {
		t.Fatalf("check: %+v", err)
	}
	if _, err := hn.Deliver(ctx, db, &Tx{}); !errors.ErrState.Is(err) {
		t.Fatalf("want state error, got %+v", err)
	}

	if got := d.CallCount(); got != 2 {
		t.Fatalf("want 2 decorator calls, got %d", got)
	}
	if got := h.CheckCallCount(); got != 1 {
		t.Fatalf("want 1 check call, got %d", got)
	}
	if got := h.DeliverCallCount(); got != 0 {
		t.Fatalf("want no deliver call, got %d", got)
	}
	if v, err := db.Get([]byte("k")); err != nil || string(v) != "v" {
		t.Fatalf("handler must write its key: %q %v", v, err)
	}
}
