package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/agentwire/didwba/internal/utils/logging"
	"github.com/agentwire/didwba/pkg/did/wba"
)

type contextKey string

// CallerKey carries the authenticated caller DID on request contexts.
const CallerKey contextKey = "didwba.caller"

// DocumentResolver is satisfied by wba.Resolver.
type DocumentResolver interface {
	Resolve(ctx context.Context, did wba.DID) (*wba.Document, error)
}

// Authenticator verifies DIDWba Authorization headers against the
// caller's resolved document. Verification is real: the signed
// payload is rebuilt from the header fields and this server's
// service domain, then checked against the named verification
// method. Nonces are held for the replay window so a captured
// header cannot be replayed inside the timestamp window.
type Authenticator struct {
	resolver DocumentResolver
	service  string

	timestampWindow time.Duration
	nonceWindow     time.Duration

	mu    sync.Mutex
	seen  map[string]time.Time
	sweep time.Time
}

func NewAuthenticator(resolver DocumentResolver, service string, timestampWindow, nonceWindow time.Duration) *Authenticator {
	return &Authenticator{
		resolver:        resolver,
		service:         service,
		timestampWindow: timestampWindow,
		nonceWindow:     nonceWindow,
		seen:            make(map[string]time.Time),
	}
}

// Verify checks a raw Authorization header value and returns the
// authenticated caller DID.
func (a *Authenticator) Verify(ctx context.Context, authorization string) (wba.DID, error) {
	h, err := wba.ParseAuthHeader(authorization)
	if err != nil {
		return "", errors.Wrap(err, "parsing authorization")
	}

	ts, err := time.Parse(time.RFC3339, h.Timestamp)
	if err != nil {
		return "", errors.Wrap(err, "parsing timestamp")
	}

	if d := time.Since(ts); d > a.timestampWindow || d < -a.timestampWindow {
		return "", errors.New("timestamp outside accepted window")
	}

	if !a.claimNonce(h.DID + "|" + h.Nonce) {
		return "", errors.New("nonce already used")
	}

	doc, err := a.resolver.Resolve(ctx, wba.DID(h.DID))
	if err != nil {
		return "", errors.Wrap(err, "resolving caller document")
	}

	if err := doc.VerifyPayload(h.Signature, h.Payload(a.service), h.VerificationMethod); err != nil {
		return "", errors.Wrap(err, "verifying signature")
	}

	return wba.DID(h.DID), nil
}

func (a *Authenticator) claimNonce(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()

	if now.Sub(a.sweep) > a.nonceWindow {
		for k, t := range a.seen {
			if now.Sub(t) > a.nonceWindow {
				delete(a.seen, k)
			}
		}
		a.sweep = now
	}

	if t, ok := a.seen[key]; ok && now.Sub(t) <= a.nonceWindow {
		return false
	}

	a.seen[key] = now
	return true
}

// RequireAuth wraps a handler so only requests carrying a valid
// DIDWba header reach it. The caller DID is attached to the request
// context under CallerKey.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" {
			w.Header().Set("WWW-Authenticate", wba.Scheme)
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}

		caller, err := a.Verify(r.Context(), authz)
		if err != nil {
			logging.WithError(err).Debug("rejecting request")
			w.Header().Set("WWW-Authenticate", wba.Scheme)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CallerKey, caller)))
	})
}

// Caller returns the authenticated DID set by RequireAuth.
func Caller(ctx context.Context) (wba.DID, bool) {
	did, ok := ctx.Value(CallerKey).(wba.DID)
	return did, ok
}
