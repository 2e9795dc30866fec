package wba

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"

	"github.com/agentwire/didwba/pkg/cryptography"
)

// BuildResult is a fully-populated, immutable identity document plus
// the key material that backs it. Partially-built documents are never
// observable: Build either returns a complete result or an error.
type BuildResult struct {
	DID      DID
	Document *Document

	// Primary is the authentication key pair in the requested
	// algorithm. Agreement and HumanAuth are always ed25519.
	Primary   *cryptography.KeyPair
	Agreement *cryptography.KeyPair
	HumanAuth *cryptography.KeyPair
}

type builderOptions struct {
	keyID func(pub []byte) (string, error)
}

type BuildOption func(*builderOptions)

// WithDeterministicKeyIDs derives method ids from a multihash of the
// public key instead of fresh randomness, for content-addressed
// documents.
func WithDeterministicKeyIDs() BuildOption {
	return func(o *builderOptions) {
		o.keyID = contentKeyID
	}
}

// Build assembles a did:wba document for the domain and optional
// path. The document always carries exactly three verification
// methods:
//
//  1. an authentication key in the requested primary algorithm,
//  2. a key-agreement key, always ed25519, tagged with the agreement
//     suite type,
//  3. a human-authorization key, always ed25519.
//
// humanAuthorization lists the authentication key by id and embeds
// the third key in full. Peers depend on that exact shape, embedded
// object included, so it is preserved as-is.
func Build(domain, path string, primary cryptography.KeyType, opts ...BuildOption) (*BuildResult, error) {
	if domain == "" {
		return nil, errors.Wrap(ErrInvalidDID, "empty domain")
	}

	o := &builderOptions{keyID: randomKeyID}
	for _, opt := range opts {
		opt(o)
	}

	did := FormatDID(domain, path)

	authKey, err := cryptography.GenerateKeyPair(primary)
	if err != nil {
		return nil, errors.Wrap(err, "generating authentication key")
	}

	agreeKey, err := cryptography.GenerateKeyPair(cryptography.KeyTypeEd25519)
	if err != nil {
		return nil, errors.Wrap(err, "generating key-agreement key")
	}

	humanKey, err := cryptography.GenerateKeyPair(cryptography.KeyTypeEd25519)
	if err != nil {
		return nil, errors.Wrap(err, "generating human-authorization key")
	}

	authVM, err := newVerificationMethod(did, authKey, o)
	if err != nil {
		return nil, errors.Wrap(err, "encoding authentication key")
	}

	agreeVM, err := newVerificationMethod(did, agreeKey, o)
	if err != nil {
		return nil, errors.Wrap(err, "encoding key-agreement key")
	}
	agreeVM.Type = X25519KeyAgreementKey2019

	humanVM, err := newVerificationMethod(did, humanKey, o)
	if err != nil {
		return nil, errors.Wrap(err, "encoding human-authorization key")
	}

	doc := &Document{
		Context:            append([]string(nil), Contexts...),
		ID:                 string(did),
		VerificationMethod: []VerificationMethod{authVM, agreeVM, humanVM},
		Authentication:     []VerificationRelationship{RefRelationship(authVM.ID)},
		KeyAgreement:       []VerificationRelationship{RefRelationship(agreeVM.ID)},
		HumanAuthorization: []VerificationRelationship{
			RefRelationship(authVM.ID),
			EmbeddedRelationship(humanVM),
		},
		Service: []Service{{
			ID:              string(did) + "#ad",
			Type:            ServiceTypeAgentDescription,
			ServiceEndpoint: AgentDescriptionURL(domain, path),
		}},
	}

	return &BuildResult{
		DID:       did,
		Document:  doc,
		Primary:   authKey,
		Agreement: agreeKey,
		HumanAuth: humanKey,
	}, nil
}

func newVerificationMethod(did DID, kp *cryptography.KeyPair, o *builderOptions) (VerificationMethod, error) {
	id, err := o.keyID(kp.Public)
	if err != nil {
		return VerificationMethod{}, err
	}

	vm := VerificationMethod{
		ID:         string(did) + "#" + id,
		Controller: string(did),
	}

	switch kp.Type {
	case cryptography.KeyTypeEd25519:
		mb, err := cryptography.EncodeMultibase(kp.Public)
		if err != nil {
			return VerificationMethod{}, err
		}
		vm.Type = Ed25519VerificationKey2018
		vm.PublicKeyMultibase = mb
	case cryptography.KeyTypeSecp256k1:
		jwk, err := cryptography.EncodeJWK(kp.Public)
		if err != nil {
			return VerificationMethod{}, err
		}
		vm.Type = EcdsaSecp256k1VerificationKey2019
		vm.PublicKeyJwk = jwk
	default:
		return VerificationMethod{}, errors.Wrapf(cryptography.ErrUnsupportedKeyType, "%s", kp.Type)
	}

	return vm, nil
}

// randomKeyID draws a fresh id per method. No uniqueness check is
// performed; collisions are avoided probabilistically.
func randomKeyID([]byte) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating key id")
	}
	return "key-" + hex.EncodeToString(b[:8]), nil
}

func contentKeyID(pub []byte) (string, error) {
	mh, err := multihash.Sum(pub, multihash.SHA3_384, multihash.DefaultLengths[multihash.SHA3_384])
	if err != nil {
		return "", errors.Wrap(err, "hashing public key")
	}
	return "key-" + mh.B58String()[:16], nil
}
