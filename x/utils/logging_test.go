package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/weavetest"
	"github.com/iov-one/htlc/weavetest/assert"
	"github.com/tendermint/tendermint/libs/log"
)

func TestLogging(t *testing.T) {
	cases := map[string]struct {
		handler *weavetest.Handler
		wantLog []string
	}{
		"success is logged with path and duration": {
			handler: &weavetest.Handler{DeliverResult: htlc.DeliverResult{Log: "all good"}},
			wantLog: []string{"all good", "path=bridge/initiate", "duration="},
		},
		"failure is logged with the error": {
			handler: &weavetest.Handler{DeliverErr: errors.ErrState.New("bad")},
			wantLog: []string{"err=", "bad"},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := htlc.WithLogger(context.Background(), log.NewTMLogger(&buf))
			tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "bridge/initiate"}}

			_, err := NewLogging().Deliver(ctx, store.MemStore(), tx, tc.handler)
			assert.IsErr(t, tc.handler.DeliverErr, err)

			out := buf.String()
			for _, want := range tc.wantLog {
				assert.True(t, strings.Contains(out, want), "missing "+want+" in "+out)
			}
		})
	}
}
