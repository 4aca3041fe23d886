package weavetest

import (
	"context"
	"fmt"

	"github.com/iov-one/htlc"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced conditions.
// You can use either Signer or Signers (or both) attributes to reference
// conditions. Each time all signers (regardless which attribute) are
// considered.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer htlc.Condition

	// Signers represents an authentication of multiple signers.
	Signers []htlc.Condition
}

func (a *Auth) GetConditions(htlc.Context) []htlc.Condition {
	if a.Signer != nil {
		return append(a.Signers, a.Signer)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx htlc.Context, addr htlc.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convinience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetConditions(ctx htlc.Context, permissions ...htlc.Condition) htlc.Context {
	return context.WithValue(ctx, a.Key, permissions)
}

func (a *CtxAuth) GetConditions(ctx htlc.Context) []htlc.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	conds, ok := val.([]htlc.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []htlc.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx htlc.Context, addr htlc.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
