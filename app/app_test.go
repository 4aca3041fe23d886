package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
	"github.com/iov-one/htlc/store/bolt"
	"github.com/iov-one/htlc/weavetest"
	"github.com/iov-one/htlc/weavetest/assert"
)

func openApp(t *testing.T, path string, h htlc.Handler) (*Application, func()) {
	t.Helper()
	db, err := bolt.Open(path)
	assert.Nil(t, err)

	queries := htlc.NewQueryRouter()
	queries.Register("/raw", orm.NewBucket("raw"))

	a := NewApplication("test", db, h, queries).
		WithInit(genesisWriter{}).
		WithDebug(true)
	assert.Nil(t, a.Load())
	return a, func() { _ = db.Close() }
}

func TestApplicationLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	bucket := orm.NewBucket("raw")

	ok := &weavetest.Handler{
		Key:           bucket.DBKey([]byte("ok")),
		Value:         []byte("1"),
		DeliverResult: htlc.DeliverResult{Data: []byte("done")},
	}
	router := NewRouter()
	router.Handle("test/ok", ok)
	router.Handle("test/fail", &weavetest.Handler{
		Key:        bucket.DBKey([]byte("fail")),
		Value:      []byte("1"),
		DeliverErr: errors.ErrState,
	})

	a, closeApp := openApp(t, path, router)
	assert.Nil(t, a.InitChain(Genesis{
		ChainID:    "test-chain",
		AppOptions: htlc.Options{"raw": json.RawMessage(`"genesis"`)},
	}))
	assert.Equal(t, "test-chain", a.ChainID())
	if err := a.InitChain(Genesis{ChainID: "test-chain"}); !errors.ErrState.Is(err) {
		t.Fatalf("second init must fail, got %+v", err)
	}

	ctx := context.Background()
	tx := func(path string) htlc.Tx {
		return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: path}}
	}

	res := a.DeliverTx(ctx, 10, tx("test/ok"))
	assert.Equal(t, uint32(0), res.Code)
	assert.Equal(t, []byte("done"), res.Data)

	res = a.DeliverTx(ctx, 11, tx("test/fail"))
	assert.Equal(t, errors.ErrState.ABCICode(), res.Code)

	res = a.DeliverTx(ctx, 12, tx("test/missing"))
	assert.Equal(t, errors.ErrNotFound.ABCICode(), res.Code)

	// failed transactions do not move the height
	_, err := a.CheckTx(ctx, 11, tx("test/ok"))
	assert.Nil(t, err)

	id, err := a.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), id.Version)
	closeApp()

	// reopen and make sure only the successful writes survived
	a, closeApp = openApp(t, path, router)
	defer closeApp()
	assert.Equal(t, "test-chain", a.ChainID())

	models, err := a.Query("/raw?prefix", nil)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(models))
	assert.Equal(t, bucket.DBKey([]byte("genesis")), models[0].Key)
	assert.Equal(t, bucket.DBKey([]byte("ok")), models[1].Key)

	_, err = a.Query("/unknown", nil)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestHeightMustIncrease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	router := NewRouter()
	router.Handle("test/ok", &weavetest.Handler{})

	a, closeApp := openApp(t, path, router)
	assert.Nil(t, a.InitChain(Genesis{ChainID: "test-chain"}))

	ctx := context.Background()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test/ok"}}

	last, err := a.LastHeight()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), last)

	res := a.DeliverTx(ctx, 100, tx)
	assert.Equal(t, uint32(0), res.Code)

	cases := map[string]int64{
		"same height":  100,
		"lower height": 7,
	}
	for testName, height := range cases {
		t.Run(testName, func(t *testing.T) {
			res := a.DeliverTx(ctx, height, tx)
			assert.Equal(t, errors.ErrState.ABCICode(), res.Code)
			_, err := a.CheckTx(ctx, height, tx)
			assert.IsErr(t, errors.ErrState, err)
		})
	}

	res = a.DeliverTx(ctx, 101, tx)
	assert.Equal(t, uint32(0), res.Code)
	_, err = a.Commit()
	assert.Nil(t, err)
	closeApp()

	a, closeApp = openApp(t, path, router)
	defer closeApp()
	last, err = a.LastHeight()
	assert.Nil(t, err)
	assert.Equal(t, int64(101), last)
	res = a.DeliverTx(ctx, 50, tx)
	assert.Equal(t, errors.ErrState.ABCICode(), res.Code)
}

func TestLoadGenesis(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "genesis.json")
	assert.Nil(t, os.WriteFile(good, []byte(`{"chain_id": "test-chain", "app_state": {"raw": "x"}}`), 0600))
	bad := filepath.Join(dir, "bad.json")
	assert.Nil(t, os.WriteFile(bad, []byte(`{"chain_id": `), 0600))

	gen, err := LoadGenesis(good)
	assert.Nil(t, err)
	assert.Equal(t, "test-chain", gen.ChainID)
	var raw string
	assert.Nil(t, gen.AppOptions.ReadOptions("raw", &raw))
	assert.Equal(t, "x", raw)

	_, err = LoadGenesis(bad)
	assert.IsErr(t, errors.ErrInput, err)
	_, err = LoadGenesis(filepath.Join(dir, "missing.json"))
	assert.IsErr(t, errors.ErrInput, err)
}

// genesisWriter stores the "raw" option as a key of the raw bucket.
type genesisWriter struct{}

func (genesisWriter) FromGenesis(opts htlc.Options, db htlc.KVStore) error {
	var key string
	if err := opts.ReadOptions("raw", &key); err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	return orm.NewBucket("raw").Set(db, []byte(key), []byte("g"))
}
