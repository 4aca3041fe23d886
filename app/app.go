package app

import (
	"strings"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Application runs transactions against a CommitKVStore. Every delivered
// transaction is executed in its own cache wrap and written only when the
// handler succeeds. Changes become durable on Commit.
type Application struct {
	name    string
	store   htlc.CommitKVStore
	handler htlc.Handler
	queries htlc.QueryRouter
	init    htlc.Initializer
	logger  log.Logger
	chainID string
	debug   bool
}

// NewApplication returns an application serving the given handler and
// queries on top of store.
func NewApplication(name string, store htlc.CommitKVStore, handler htlc.Handler, queries htlc.QueryRouter) *Application {
	return &Application{
		name:    name,
		store:   store,
		handler: handler,
		queries: queries,
		logger:  log.NewNopLogger(),
	}
}

// WithInit sets the initializer used by InitChain.
func (a *Application) WithInit(init htlc.Initializer) *Application {
	a.init = init
	return a
}

// WithLogger sets the logger passed down to every handler.
func (a *Application) WithLogger(logger log.Logger) *Application {
	a.logger = logger.With("module", a.name)
	return a
}

// WithDebug makes the error responses carry the full error message
// including the stack trace.
func (a *Application) WithDebug(debug bool) *Application {
	a.debug = debug
	return a
}

// Load restores the last committed state, including the chain id.
func (a *Application) Load() error {
	if err := a.store.LoadLatestVersion(); err != nil {
		return errors.Wrap(err, "load latest version")
	}
	cache := a.store.CacheWrap()
	defer cache.Discard()
	chainID, err := loadChainID(cache)
	if err != nil {
		return err
	}
	a.chainID = chainID
	return nil
}

// ChainID returns the chain id set by InitChain or an empty string.
func (a *Application) ChainID() string {
	return a.chainID
}

// InitChain stores the chain id and runs the initializer against the
// application options. It commits the result.
func (a *Application) InitChain(gen Genesis) error {
	if a.chainID != "" {
		return errors.Wrapf(errors.ErrState, "chain %q already initialized", a.chainID)
	}
	cache := a.store.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if a.init != nil {
		if err := a.init.FromGenesis(gen.AppOptions, cache); err != nil {
			cache.Discard()
			return errors.Wrap(err, "initialize from genesis")
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write genesis")
	}
	if _, err := a.Commit(); err != nil {
		return err
	}
	a.chainID = gen.ChainID
	a.logger.Info("chain initialized", "chain", gen.ChainID)
	return nil
}

// blockContext prepares the context for a transaction at given height.
func (a *Application) blockContext(ctx htlc.Context, height int64) htlc.Context {
	ctx = htlc.WithLogger(ctx, a.logger)
	if a.chainID != "" {
		ctx = htlc.WithChainID(ctx, a.chainID)
	}
	return htlc.WithHeight(ctx, height)
}

// CheckTx validates a transaction at given height without persisting
// anything.
func (a *Application) CheckTx(ctx htlc.Context, height int64, tx htlc.Tx) (*htlc.CheckResult, error) {
	ctx = htlc.WithLogInfo(a.blockContext(ctx, height),
		"call", "check_tx",
		"path", htlc.GetPath(tx))

	cache := a.store.CacheWrap()
	defer cache.Discard()
	if err := ensureHeight(cache, height); err != nil {
		return nil, err
	}
	return a.handler.Check(ctx, cache, tx)
}

// DeliverTx executes a transaction at given height. The context must carry
// the authentication information of the transaction.
//
// Every transaction is a block of its own, so the height must be greater
// than the height of the last delivered transaction. The height is
// recorded together with the writes of a successful transaction.
func (a *Application) DeliverTx(ctx htlc.Context, height int64, tx htlc.Tx) abci.ResponseDeliverTx {
	ctx = htlc.WithLogInfo(a.blockContext(ctx, height),
		"call", "deliver_tx",
		"path", htlc.GetPath(tx))

	cache := a.store.CacheWrap()
	if err := ensureHeight(cache, height); err != nil {
		cache.Discard()
		return htlc.DeliverOrError(nil, err, a.debug)
	}
	res, err := a.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return htlc.DeliverOrError(nil, err, a.debug)
	}
	if err := saveHeight(cache, height); err != nil {
		cache.Discard()
		return htlc.DeliverOrError(nil, errors.Wrap(err, "save height"), a.debug)
	}
	if err := cache.Write(); err != nil {
		return htlc.DeliverOrError(nil, errors.Wrap(err, "write"), a.debug)
	}
	return htlc.DeliverOrError(res, nil, a.debug)
}

// Commit persists all delivered transactions.
func (a *Application) Commit() (htlc.CommitID, error) {
	id, err := a.store.Commit()
	if err != nil {
		return id, errors.Wrap(err, "commit")
	}
	a.logger.Debug("commit synced", "version", id.Version, "written", id.Written)
	return id, nil
}

// ensureHeight fails unless height is past the last delivered height.
func ensureHeight(db htlc.ReadOnlyKVStore, height int64) error {
	last, err := loadHeight(db)
	if err != nil {
		return err
	}
	if height <= last {
		return errors.Wrapf(errors.ErrState, "height %d is not after the last height %d", height, last)
	}
	return nil
}

// LastHeight returns the height of the last successfully delivered
// transaction, or zero if there is none.
func (a *Application) LastHeight() (int64, error) {
	cache := a.store.CacheWrap()
	defer cache.Discard()
	return loadHeight(cache)
}

// LatestVersion returns the last committed version.
func (a *Application) LatestVersion() (htlc.CommitID, error) {
	return a.store.LatestVersion()
}

// Query gets data from the last committed state. The path is the query
// handler path optionally followed by a "?mod" suffix, for example
// "/bridge/transfers?prefix".
func (a *Application) Query(path string, data []byte) ([]htlc.Model, error) {
	path, mod := splitPath(path)
	qh := a.queries.Handler(path)
	if qh == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "query path: %s", path)
	}
	cache := a.store.CacheWrap()
	defer cache.Discard()
	return qh.Query(cache, mod, data)
}

// splitPath splits out the real path along with the query
// modifier (everything after the ?)
func splitPath(path string) (string, string) {
	var mod string
	chunks := strings.SplitN(path, "?", 2)
	if len(chunks) == 2 {
		path = chunks[0]
		mod = chunks[1]
	}
	return path, mod
}
