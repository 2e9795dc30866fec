package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentwire/didwba/pkg/agent"
	"github.com/agentwire/didwba/pkg/cryptography"
	"github.com/agentwire/didwba/pkg/did/wba"
)

const serviceDomain = "server.example.com"

func newTestServer(t *testing.T, caller *agent.Identity) *httptest.Server {
	t.Helper()

	id, err := agent.NewIdentity(serviceDomain, "", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	// serve the caller's document so the resolver can fetch it
	callerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(caller.Document)
	}))
	t.Cleanup(callerSrv.Close)

	resolver := wba.NewResolver(wba.WithBaseURL(callerSrv.URL))
	auth := NewAuthenticator(resolver, serviceDomain, 5*time.Minute, 6*time.Minute)

	s, err := NewServer(id, id.Describe(agent.Profile{Name: "test"}), auth)
	require.NoError(t, err)

	ts := httptest.NewServer(s.httpSrv.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func TestServeDocument(t *testing.T) {
	caller, err := agent.NewIdentity("caller.example.com", "", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, caller)

	resp, err := http.Get(ts.URL + "/.well-known/did.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	doc := &wba.Document{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(doc))
	assert.Equal(t, "did:wba:"+serviceDomain, doc.ID)
	assert.NoError(t, doc.Validate())
}

func TestServeDescription(t *testing.T) {
	caller, err := agent.NewIdentity("caller.example.com", "", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, caller)

	resp, err := http.Get(ts.URL + "/agents/default/ad.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	d := &agent.Description{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(d))
	assert.Equal(t, "test", d.Name)
	assert.Equal(t, "did:wba:"+serviceDomain, d.DID)
}

func TestPingRequiresAuth(t *testing.T) {
	caller, err := agent.NewIdentity("caller.example.com", "", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, caller)

	resp, err := http.Get(ts.URL + "/v1/ping")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wba.Scheme, resp.Header.Get("WWW-Authenticate"))
}

func TestPingWithSignedHeader(t *testing.T) {
	for _, kt := range []cryptography.KeyType{cryptography.KeyTypeEd25519, cryptography.KeyTypeSecp256k1} {
		t.Run(string(kt), func(t *testing.T) {
			caller, err := agent.NewIdentity("caller.example.com", "", kt)
			require.NoError(t, err)

			ts := newTestServer(t, caller)

			h, err := caller.SignRequest(serviceDomain)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/ping", nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", h.String())

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, string(caller.DID), body["caller"])
		})
	}
}

func TestPingRejectsReplay(t *testing.T) {
	caller, err := agent.NewIdentity("caller.example.com", "", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, caller)

	h, err := caller.SignRequest(serviceDomain)
	require.NoError(t, err)

	send := func() int {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/ping", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", h.String())

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusUnauthorized, send())
}

func TestPingRejectsTamperedSignature(t *testing.T) {
	caller, err := agent.NewIdentity("caller.example.com", "", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, caller)

	h, err := caller.SignRequest(serviceDomain)
	require.NoError(t, err)
	h.Nonce = "ffffffffffffffffffffffffffffffff"

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/ping", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", h.String())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticatorRejectsStaleTimestamp(t *testing.T) {
	caller, err := agent.NewIdentity("caller.example.com", "", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	callerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(caller.Document)
	}))
	defer callerSrv.Close()

	resolver := wba.NewResolver(wba.WithBaseURL(callerSrv.URL))
	auth := NewAuthenticator(resolver, serviceDomain, time.Minute, 6*time.Minute)

	h, err := caller.SignRequest(serviceDomain)
	require.NoError(t, err)
	h.Timestamp = time.Now().UTC().Add(-10 * time.Minute).Format(time.RFC3339)

	_, err = auth.Verify(context.Background(), h.String())
	assert.Error(t, err)
}

func TestDocumentPathWithUserPath(t *testing.T) {
	id, err := agent.NewIdentity("example.com", "user:alice", cryptography.KeyTypeEd25519)
	require.NoError(t, err)

	p, err := documentPath(id)
	require.NoError(t, err)
	assert.Equal(t, "/user/alice/did.json", p)

	assert.Equal(t, "/agents/user/alice/ad.json", descriptionPath(id))
}
