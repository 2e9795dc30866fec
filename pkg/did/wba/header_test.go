package wba

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHeaderRoundTrip(t *testing.T) {
	h := &AuthHeader{
		DID:                "did:wba:example.com:user:alice",
		Nonce:              "8d3f1a2b4c5e6f70",
		Timestamp:          "2024-01-01T00:00:00Z",
		VerificationMethod: "#key-abc",
		Signature:          "c2lnbmF0dXJl",
	}

	parsed, err := ParseAuthHeader(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestAuthHeaderString(t *testing.T) {
	h := &AuthHeader{
		DID:       "did:wba:example.com",
		Nonce:     "n",
		Timestamp: "ts",
		Signature: "sig",
	}

	assert.Equal(t,
		`DIDWba did="did:wba:example.com", nonce="n", timestamp="ts", verification_method="", signature="sig"`,
		h.String())
}

func TestParseAuthHeaderErrors(t *testing.T) {
	tests := []string{
		`Bearer abc123`,
		`DIDWba did="did:wba:example.com"`,
		`DIDWba garbage`,
	}

	for _, v := range tests {
		t.Run(v, func(t *testing.T) {
			_, err := ParseAuthHeader(v)
			assert.Error(t, err)
		})
	}
}

func TestAuthHeaderPayload(t *testing.T) {
	h := &AuthHeader{DID: "did:wba:example.com", Nonce: "n", Timestamp: "ts"}
	p := h.Payload("svc.example.com")

	assert.Equal(t, AuthPayload{Nonce: "n", Timestamp: "ts", Service: "svc.example.com", DID: "did:wba:example.com"}, p)
}
