// Package session turns the stored bearer token into a normalized
// Identity, optionally reconciled against the server's authoritative
// profile.
package session

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shweta76555/deskcli/internal/claims"
	"github.com/shweta76555/deskcli/internal/errs"
	"github.com/shweta76555/deskcli/internal/model"
	"github.com/shweta76555/deskcli/internal/tokenstore"
)

// ProfileFetcher fetches the authoritative profile for the subject.
// Implementations decide the endpoint (user lookup for numeric subject
// ids, self endpoint otherwise).
type ProfileFetcher interface {
	Profile(ctx context.Context, subjectID string) (*model.Profile, error)
}

// Resolver combines the token store, the claims decoder, and an optional
// profile fetch into one Identity value. A nil Fetcher yields token-only
// identities.
type Resolver struct {
	Store   tokenstore.Store
	Fetcher ProfileFetcher
	// Now is the clock used for expiry checks; nil means time.Now.
	Now func() time.Time

	gen atomic.Uint64
}

// NewResolver wires a resolver over the given store and fetcher.
func NewResolver(store tokenstore.Store, fetcher ProfileFetcher) *Resolver {
	return &Resolver{Store: store, Fetcher: fetcher}
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolve reads the token and derives the Identity without any network
// round-trip. Outcomes:
//
//   - no token: zero Identity and errs.ErrNoSession (redirect condition);
//   - malformed token: Identity with IsExpired set and empty claims, plus
//     errs.ErrMalformedToken — a present-but-broken token is a distinct
//     condition from no token and must not turn into a silent redirect;
//   - expired token: the fully extracted Identity plus
//     errs.ErrSessionExpired. The token is left in the store; each
//     request still carries it and the server is the ultimate enforcer;
//   - otherwise: the Identity and nil.
//
// Resolve is idempotent: with no store mutation in between, two calls
// agree in every field.
func (r *Resolver) Resolve(ctx context.Context) (model.Identity, error) {
	_ = ctx // no suspension here; kept for interface symmetry with enrichment

	token, err := r.Store.Get()
	if err != nil {
		return model.Identity{}, err
	}

	payload, err := claims.Decode(token)
	if err != nil {
		return model.Identity{IsExpired: true}, err
	}

	ident := model.Identity{RawClaims: payload}
	if exp, ok := claims.ExpiresAt(payload); ok {
		ident.ExpiresAt = exp
		ident.IsExpired = r.now().After(exp)
	}
	if v, ok := claims.SubjectID(payload); ok {
		ident.SubjectID = v
	}
	if v, ok := claims.DisplayName(payload); ok {
		ident.DisplayName = v
	}
	if v, ok := claims.Email(payload); ok {
		ident.Email = v
	}
	if v, ok := claims.Role(payload); ok {
		ident.Role = v
	}

	if ident.IsExpired {
		return ident, errs.ErrSessionExpired
	}
	return ident, nil
}

// Enrich issues exactly one authoritative profile fetch and merges the
// result over the token-derived identity. Authoritative fields win ties;
// fetch failure degrades gracefully to the input identity with a nil
// error, because network unavailability must not fail resolution.
func (r *Resolver) Enrich(ctx context.Context, ident model.Identity) (model.Identity, error) {
	if r.Fetcher == nil {
		return ident, nil
	}
	p, err := r.Fetcher.Profile(ctx, ident.SubjectID)
	if err != nil || p == nil {
		return ident, nil
	}
	if p.ID != 0 {
		ident.SubjectID = strconv.FormatInt(p.ID, 10)
	}
	if p.Name != "" {
		ident.DisplayName = p.Name
	}
	if p.Email != "" {
		ident.Email = p.Email
	}
	if p.Role != "" {
		ident.Role = p.Role
	}
	return ident, nil
}

// ResolveLive delivers the token-only identity to apply synchronously,
// then runs enrichment in the background and delivers the merged identity
// on completion. Only the most recent ResolveLive call per resolver may
// apply its enrichment: a newer call supersedes older in-flight fetches,
// so a late response never overwrites a newer identity.
//
// The returned error mirrors Resolve; on ErrNoSession or
// ErrMalformedToken nothing is applied asynchronously.
func (r *Resolver) ResolveLive(ctx context.Context, apply func(model.Identity)) (model.Identity, error) {
	gen := r.gen.Add(1)

	ident, err := r.Resolve(ctx)
	if err != nil {
		return ident, err
	}
	apply(ident)

	if r.Fetcher == nil {
		return ident, nil
	}
	go func() {
		enriched, _ := r.Enrich(ctx, ident)
		if r.gen.Load() != gen {
			return // superseded; discard
		}
		apply(enriched)
	}()
	return ident, nil
}
