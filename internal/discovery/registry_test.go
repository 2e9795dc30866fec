package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	var got Registration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL})
	err := c.Register(context.Background(), &Registration{
		DID:         "did:wba:example.com",
		DocumentURL: "https://example.com/.well-known/did.json",
	})
	require.NoError(t, err)

	assert.Equal(t, "did:wba:example.com", got.DID)
}

func TestRegisterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL}, WithAttempts(3))
	err := c.Register(context.Background(), &Registration{DID: "did:wba:example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRegisterPartialFailure(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	c := NewClient([]string{bad.URL, ok.URL}, WithAttempts(1))
	err := c.Register(context.Background(), &Registration{DID: "did:wba:example.com"})

	// the healthy registry was still announced to; the error only
	// reports the failing one
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRegisterNoEndpoints(t *testing.T) {
	c := NewClient(nil)
	assert.NoError(t, c.Register(context.Background(), &Registration{DID: "did:wba:example.com"}))
}
