package x

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding a single one for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(htlc.Context) []htlc.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(htlc.Context, htlc.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx htlc.Context) []htlc.Condition {
	var res []htlc.Condition
	for _, impl := range m.impls {
		if add := impl.GetConditions(ctx); len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx htlc.Context, addr htlc.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx htlc.Context, auth Authenticator) []htlc.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]htlc.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first permission if any, otherwise nil
func MainSigner(ctx htlc.Context, auth Authenticator) htlc.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// Caller returns the address of the main signer. Every bridge operation
// is executed on behalf of exactly one caller, so a context without any
// signer is rejected.
func Caller(ctx htlc.Context, auth Authenticator) (htlc.Address, error) {
	signer := MainSigner(ctx, auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return signer.Address(), nil
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx htlc.Context, auth Authenticator, required []htlc.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}
