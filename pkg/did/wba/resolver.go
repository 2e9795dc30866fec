package wba

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const defaultCacheTTL = 15 * time.Minute

// Resolver fetches did:wba documents from their well-known HTTPS
// location, with a small positive cache.
type Resolver struct {
	client *http.Client
	ttl    time.Duration

	mu    sync.Mutex
	cache map[DID]cachedDoc

	// baseURL overrides the scheme+host derived from the DID; used
	// by tests to point at a local server.
	baseURL string
}

type cachedDoc struct {
	doc     *Document
	expires time.Time
}

type ResolverOption func(*Resolver)

func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithBaseURL rewrites document fetches to baseURL + path, keeping
// the path derived from the DID.
func WithBaseURL(base string) ResolverOption {
	return func(r *Resolver) { r.baseURL = base }
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    defaultCacheTTL,
		cache:  make(map[DID]cachedDoc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches and validates the document for a did:wba
// identifier, verifying the document's id matches the request.
func (r *Resolver) Resolve(ctx context.Context, did DID) (*Document, error) {
	r.mu.Lock()
	if c, ok := r.cache[did]; ok && time.Now().Before(c.expires) {
		r.mu.Unlock()
		return c.doc, nil
	}
	r.mu.Unlock()

	u, err := r.documentURL(did)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building document request")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching did document")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching did document: %s", resp.Status)
	}

	doc := &Document{}
	if err := json.NewDecoder(resp.Body).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "decoding did document")
	}

	if doc.ID != string(did) {
		return nil, errors.Errorf("document id %s does not match %s", doc.ID, did)
	}

	if err := doc.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating did document")
	}

	r.mu.Lock()
	r.cache[did] = cachedDoc{doc: doc, expires: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	return doc, nil
}

func (r *Resolver) documentURL(did DID) (string, error) {
	u, err := did.DocumentURL()
	if err != nil {
		return "", err
	}

	if r.baseURL == "" {
		return u, nil
	}

	_, path, err := did.Parts()
	if err != nil {
		return "", err
	}

	if path == "" {
		return r.baseURL + "/.well-known/did.json", nil
	}

	return r.baseURL + "/" + strings.ReplaceAll(path, ":", "/") + "/did.json", nil
}
