package wba

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type didParts struct {
	Domain string
	Path   string
	Err    bool
}

func TestDIDParts(t *testing.T) {
	tests := map[string]didParts{
		"did:wba:example.com":                 {Domain: "example.com"},
		"did:wba:example.com:user:alice":      {Domain: "example.com", Path: "user:alice"},
		"did:wba:example.com:agents:a:b:c":    {Domain: "example.com", Path: "agents:a:b:c"},
		"did:wba:":                            {Err: true},
		"did:wba:example.com:":                {Err: true},
		"did:web:example.com":                 {Err: true},
		"did:wba::user":                       {Err: true},
		"example.com":                         {Err: true},
		"did:wba:example.com/path":            {Err: true},
		"did:wba:localhost:agents:assistant":  {Domain: "localhost", Path: "agents:assistant"},
	}

	for k, want := range tests {
		t.Run(k, func(t *testing.T) {
			domain, path, err := DID(k).Parts()
			if want.Err {
				assert.Error(t, err)
				assert.False(t, DID(k).Valid())
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, want.Domain, domain)
			assert.Equal(t, want.Path, path)
			assert.True(t, DID(k).Valid())
		})
	}
}

func TestFormatDID(t *testing.T) {
	assert.Equal(t, DID("did:wba:example.com"), FormatDID("example.com", ""))
	assert.Equal(t, DID("did:wba:example.com:user:alice"), FormatDID("example.com", "user:alice"))
}

func TestDocumentURL(t *testing.T) {
	u, err := DID("did:wba:example.com").DocumentURL()
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/.well-known/did.json", u)

	u, err = DID("did:wba:example.com:user:alice").DocumentURL()
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/user/alice/did.json", u)

	_, err = DID("did:key:z6Mk").DocumentURL()
	assert.Error(t, err)
}

func TestAgentDescriptionURL(t *testing.T) {
	assert.Equal(t, "https://example.com/agents/user:alice/ad.json", AgentDescriptionURL("example.com", "user:alice"))
	assert.Equal(t, "https://example.com/agents/default/ad.json", AgentDescriptionURL("example.com", ""))
}
