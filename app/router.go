package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[0-9A-Za-z_\-/]+$`).MatchString

// Router allows us to register many handlers with different
// paths and then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]htlc.Handler
}

var _ htlc.Registry = (*Router)(nil)
var _ htlc.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]htlc.Handler),
	}
}

// Handle adds a new Handler for the given path. This function panics if a
// handler for given path is already registered.
func (r *Router) Handle(path string, h htlc.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path. If no path is
// found, returns a noSuchPath Handler. This method always returns a non nil
// value.
func (r *Router) handler(path string) htlc.Handler {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return noSuchPathHandler{path: path}
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg.Path()).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg.Path()).Deliver(ctx, store, tx)
}

// noSuchPathHandler returns an error for every call.
type noSuchPathHandler struct {
	path string
}

var _ htlc.Handler = noSuchPathHandler{}

func (h noSuchPathHandler) Check(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "path: %s", h.path)
}

func (h noSuchPathHandler) Deliver(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "path: %s", h.path)
}
