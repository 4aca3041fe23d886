package wrapped

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/gconf"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/weavetest"
	"github.com/iov-one/htlc/weavetest/assert"
)

func TestGenesis(t *testing.T) {
	minter := weavetest.NewAddress()
	alice := weavetest.NewAddress()

	conf := `"conf": {"wrapped": {"minter": "` + minter.String() + `"}}`

	cases := map[string]struct {
		genesis    string
		wantErr    *errors.Error
		wantNative uint64
		wantToken  uint64
	}{
		"accounts with both balances": {
			genesis:    `{` + conf + `, "wrapped": [{"address": "` + alice.String() + `", "native": "7", "token": "5"}]}`,
			wantNative: 7,
			wantToken:  5,
		},
		"no accounts": {
			genesis: `{` + conf + `}`,
		},
		"missing configuration": {
			genesis: `{"wrapped": []}`,
			wantErr: errors.ErrNotFound,
		},
		"invalid amount": {
			genesis: `{` + conf + `, "wrapped": [{"address": "` + alice.String() + `", "native": "-1"}]}`,
			wantErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts htlc.Options
			assert.Nil(t, json.Unmarshal([]byte(tc.genesis), &opts))

			db := store.MemStore()
			err := Initializer{}.FromGenesis(opts, db)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}

			var c Configuration
			assert.Nil(t, gconf.Load(db, packageName, &c))
			assert.Equal(t, minter, c.Minter)

			l := NewLedger()
			assertAmount(t, tc.wantNative, mustAmount(l.NativeBalance(db, alice)))
			assertAmount(t, tc.wantToken, mustAmount(l.Balance(db, alice)))
			assertAmount(t, tc.wantToken, mustAmount(l.NativeBalance(db, ReserveAddress)))
		})
	}
}
