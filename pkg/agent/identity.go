// Package agent ties key generation and document assembly into a
// single identity an agent service owns: the DID, its private key,
// the published document and the non-cryptographic description
// profile.
package agent

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/agentwire/didwba/pkg/cryptography"
	"github.com/agentwire/didwba/pkg/did/wba"
)

var ErrNotConfigured = errors.New("identity not yet generated")

// Identity is the fully-populated result of identity creation. All
// fields are set before the value is ever handed out; a partially
// built identity is not observable.
type Identity struct {
	DID      wba.DID
	KeyPair  *cryptography.KeyPair
	Document *wba.Document
	Created  time.Time
}

// NewIdentity generates the key material and document for a fresh
// did:wba identity in one step.
func NewIdentity(domain, path string, primary cryptography.KeyType, opts ...wba.BuildOption) (*Identity, error) {
	res, err := wba.Build(domain, path, primary, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "building did document")
	}

	return &Identity{
		DID:      res.DID,
		KeyPair:  res.Primary,
		Document: res.Document,
		Created:  time.Now().UTC(),
	}, nil
}

// PrivateKeyPEM exports the primary private key as PEM with the
// algorithm name in the header.
func (id *Identity) PrivateKeyPEM() []byte {
	return cryptography.MarshalPrivateKeyPEM(id.KeyPair)
}

// UpdateServiceEndpoint updates or inserts a service entry by id.
// Service is the only document field that stays mutable after
// creation.
func (id *Identity) UpdateServiceEndpoint(svc wba.Service) {
	id.Document.UpsertService(svc)
}

// SignRequest produces the DIDWba Authorization header for a request
// to the named service, with a fresh nonce and the current UTC
// timestamp.
func (id *Identity) SignRequest(service string) (*wba.AuthHeader, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "generating nonce")
	}

	h := &wba.AuthHeader{
		DID:       string(id.DID),
		Nonce:     hex.EncodeToString(nonce),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if len(id.Document.Authentication) > 0 {
		if frag := authFragment(id.Document); frag != "" {
			h.VerificationMethod = "#" + frag
		}
	}

	sig, err := cryptography.SignPayload(id.KeyPair, h.Payload(service))
	if err != nil {
		return nil, errors.Wrap(err, "signing request payload")
	}
	h.Signature = sig

	return h, nil
}

func authFragment(doc *wba.Document) string {
	vm := doc.FindVerificationMethod(doc.Authentication[0].MethodID())
	if vm == nil {
		return ""
	}
	if i := strings.IndexByte(vm.ID, '#'); i >= 0 {
		return vm.ID[i+1:]
	}
	return ""
}

// Manager sequences identity creation for an owning service and
// guards its accessors: everything fails with ErrNotConfigured until
// Generate has completed. One Manager owns exactly one DID's key
// material.
type Manager struct {
	mu sync.RWMutex
	id *Identity
}

func NewManager() *Manager {
	return &Manager{}
}

// Generate builds the identity. Calling it again replaces the
// previous identity wholesale.
func (m *Manager) Generate(domain, path string, primary cryptography.KeyType, opts ...wba.BuildOption) (*Identity, error) {
	id, err := NewIdentity(domain, path, primary, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.id = id
	m.mu.Unlock()

	return id, nil
}

// Adopt installs an identity loaded from persistent storage.
func (m *Manager) Adopt(id *Identity) {
	m.mu.Lock()
	m.id = id
	m.mu.Unlock()
}

func (m *Manager) Identity() (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.id == nil {
		return nil, ErrNotConfigured
	}
	return m.id, nil
}

func (m *Manager) DID() (wba.DID, error) {
	id, err := m.Identity()
	if err != nil {
		return "", err
	}
	return id.DID, nil
}

func (m *Manager) Document() (*wba.Document, error) {
	id, err := m.Identity()
	if err != nil {
		return nil, err
	}
	return id.Document, nil
}

func (m *Manager) PrivateKeyPEM() ([]byte, error) {
	id, err := m.Identity()
	if err != nil {
		return nil, err
	}
	return id.PrivateKeyPEM(), nil
}
