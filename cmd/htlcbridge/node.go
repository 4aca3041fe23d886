package main

import (
	"context"
	"io"
	"os"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store/bolt"
	"github.com/iov-one/htlc/x/bridge"
	"github.com/iov-one/htlc/x/sigs"
	"github.com/iov-one/htlc/x/utils"
	"github.com/iov-one/htlc/x/wrapped"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/urfave/cli"
)

const appName = "htlcbridge"

// node is a single process chain. Every submitted transaction is delivered
// and committed as its own block.
type node struct {
	config Config
	db     *bolt.Store
	app    *app.Application
	logger log.Logger
}

// newLogger builds the process logger writing to w, filtered by level.
func newLogger(w io.Writer, level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(w))
	if level == "none" {
		return log.NewNopLogger(), nil
	}
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

// newHandler wires the bridge and its wrapped token ledger behind the
// signature verification.
func newHandler() (htlc.Handler, htlc.QueryRouter) {
	tokens := wrapped.NewLedger()
	ctrl := bridge.NewController(tokens)
	auth := sigs.Authenticate{}

	rt := app.NewRouter()
	wrapped.RegisterRoutes(rt, auth, tokens)
	bridge.RegisterRoutes(rt, auth, ctrl, tokens)

	qr := htlc.NewQueryRouter()
	qr.RegisterAll(
		tokens.RegisterQuery,
		bridge.RegisterQuery,
		sigs.RegisterQuery,
	)

	handler := app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// complete, refund and initialize can be sent by anyone
		sigs.NewDecorator().AllowMissingSigs(),
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(rt)
	return handler, qr
}

// openNode loads the configuration and the database of the command.
func openNode(ctx *cli.Context) (*node, error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(os.Stderr, config.DebugLevel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.DataDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	db, err := bolt.Open(config.DBPath())
	if err != nil {
		return nil, err
	}

	handler, queries := newHandler()
	application := app.NewApplication(appName, db, handler, queries).
		WithInit(app.ChainInitializers(wrapped.Initializer{}, bridge.Initializer{})).
		WithLogger(logger).
		WithDebug(config.Debug)
	if err := application.Load(); err != nil {
		db.Close()
		return nil, err
	}
	return &node{
		config: config,
		db:     db,
		app:    application,
		logger: logger,
	}, nil
}

func (n *node) Close() error {
	return n.db.Close()
}

// height returns the height the next transaction is executed at: the
// next block, or a later one given explicitly. Heights never go back.
func (n *node) height(ctx *cli.Context) (int64, error) {
	last, err := n.app.LastHeight()
	if err != nil {
		return 0, err
	}
	h := ctx.GlobalInt64("height")
	switch {
	case h == 0:
		return last + 1, nil
	case h <= last:
		return 0, errors.Wrapf(errors.ErrInput, "height %d is not after the last height %d", h, last)
	}
	return h, nil
}

// submit signs the message with the named key, unless the name is empty,
// then delivers and commits it at the next height. It returns the result
// and the height the transaction was executed at.
func (n *node) submit(ctx *cli.Context, from string, msg htlc.Msg) (*htlc.DeliverResult, int64, error) {
	if n.app.ChainID() == "" {
		return nil, 0, errors.Wrap(errors.ErrState, "chain is not initialized, run init first")
	}
	tx := sigs.NewStdTx(msg)
	if from != "" {
		key, err := loadOrCreateKey(n.config.KeysDir(), from)
		if err != nil {
			return nil, 0, err
		}
		seq, err := n.nonce(key.PublicKey().Address())
		if err != nil {
			return nil, 0, err
		}
		if err := tx.Sign(key, n.app.ChainID(), seq); err != nil {
			return nil, 0, errors.Wrap(err, "sign")
		}
	}

	height, err := n.height(ctx)
	if err != nil {
		return nil, 0, err
	}
	res := n.app.DeliverTx(context.Background(), height, tx)
	if res.Code != 0 {
		return nil, 0, errors.ABCIError(res.Code, res.Log)
	}
	if _, err := n.app.Commit(); err != nil {
		return nil, 0, err
	}
	return &htlc.DeliverResult{Data: res.Data, Log: res.Log}, height, nil
}

// nonce reads the next signing sequence of the address.
func (n *node) nonce(addr htlc.Address) (int64, error) {
	var user sigs.UserData
	switch found, err := n.queryOne("/auth", addr, &user); {
	case err != nil:
		return 0, err
	case !found:
		return 0, nil
	}
	return user.Sequence, nil
}

// queryOne loads a single model by key. It returns false if nothing is
// stored under the key.
func (n *node) queryOne(path string, key []byte, dest htlc.Persistent) (bool, error) {
	models, err := n.app.Query(path, key)
	if err != nil {
		return false, err
	}
	if len(models) == 0 {
		return false, nil
	}
	if err := dest.Unmarshal(models[0].Value); err != nil {
		return false, errors.Wrap(err, "unmarshal")
	}
	return true, nil
}
