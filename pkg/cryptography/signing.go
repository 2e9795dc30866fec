package cryptography

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"

	ethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Sign signs raw message bytes with the key pair's algorithm and
// returns the raw signature bytes.
//
// Ed25519 signs the message directly. Secp256k1 signs the SHA-256
// digest of the message, yielding the 65-byte [R || S || V] form.
// The asymmetry matches the wire behaviour other did:wba agents
// expect and must not be unified.
func Sign(kp *KeyPair, msg []byte) ([]byte, error) {
	switch kp.Type {
	case KeyTypeEd25519:
		if len(kp.Private) != Ed25519PrivateKeySize {
			return nil, errors.Errorf("ed25519 seed must be %d bytes, got %d", Ed25519PrivateKeySize, len(kp.Private))
		}
		sk := ed25519.NewKeyFromSeed(kp.Private)
		return ed25519.Sign(sk, msg), nil
	case KeyTypeSecp256k1:
		pk, err := ethCrypto.ToECDSA(kp.Private)
		if err != nil {
			return nil, errors.Wrap(err, "parsing secp256k1 scalar")
		}
		h := sha256.Sum256(msg)
		return ethCrypto.Sign(h[:], pk)
	default:
		return nil, errors.Wrapf(ErrUnsupportedKeyType, "%s", kp.Type)
	}
}

// Verify checks a raw signature over raw message bytes. It is
// fail-closed: any malformed key, malformed signature or unsupported
// type reports false rather than an error.
func Verify(t KeyType, pub, sig, msg []byte) bool {
	switch t {
	case KeyTypeEd25519:
		if len(pub) != Ed25519PublicKeySize || len(sig) != ed25519.SignatureSize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
	case KeyTypeSecp256k1:
		if len(pub) != Secp256k1PublicKeySize || pub[0] != 0x04 {
			return false
		}
		// accept both [R || S] and [R || S || V]
		if len(sig) != 64 && len(sig) != 65 {
			return false
		}
		h := sha256.Sum256(msg)
		return ethCrypto.VerifySignature(pub, h[:], sig[:64])
	default:
		return false
	}
}

// SignPayload canonicalizes a structured payload, signs the canonical
// bytes and returns the signature as unpadded base64url.
func SignPayload(kp *KeyPair, payload interface{}) (string, error) {
	b, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}

	sig, err := Sign(kp, b)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// VerifyPayload canonicalizes a structured payload identically to
// SignPayload and checks the base64url signature against it.
// Fail-closed: decode and canonicalization failures report false.
func VerifyPayload(t KeyType, pub []byte, sig string, payload interface{}) bool {
	raw, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	b, err := Canonicalize(payload)
	if err != nil {
		return false
	}

	return Verify(t, pub, raw, b)
}
