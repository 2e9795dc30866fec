package cryptography

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
)

// JWK is a JSON Web Key restricted to the uncompressed secp256k1
// points this method emits. X and Y are base64url without padding.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	Kid string `json:"kid,omitempty"`
}

const (
	jwkKtyEC        = "EC"
	jwkCrvSecp256k1 = "secp256k1"
)

// EncodeMultibase encodes raw public key bytes as base58btc with the
// leading 'z' multibase prefix.
func EncodeMultibase(raw []byte) (string, error) {
	return multibase.Encode(multibase.Base58BTC, raw)
}

func DecodeMultibase(mb string) ([]byte, error) {
	_, d, err := multibase.Decode(mb)
	return d, err
}

// EncodeJWK converts a 65-byte uncompressed secp256k1 point into its
// JWK form. The kid is 16 fresh random bytes; it identifies the key
// within a document and is not content-derived.
func EncodeJWK(pub []byte) (*JWK, error) {
	if len(pub) != Secp256k1PublicKeySize || pub[0] != 0x04 {
		return nil, errors.New("not an uncompressed secp256k1 point")
	}

	kid := make([]byte, 16)
	if _, err := rand.Read(kid); err != nil {
		return nil, errors.Wrap(err, "generating kid")
	}

	return &JWK{
		Kty: jwkKtyEC,
		Crv: jwkCrvSecp256k1,
		X:   base64.RawURLEncoding.EncodeToString(pub[1:33]),
		Y:   base64.RawURLEncoding.EncodeToString(pub[33:]),
		Kid: base64.RawURLEncoding.EncodeToString(kid),
	}, nil
}

// DecodeJWK rebuilds the uncompressed point from a secp256k1 JWK.
func DecodeJWK(k *JWK) ([]byte, error) {
	if k == nil {
		return nil, errors.New("nil jwk")
	}
	if k.Kty != jwkKtyEC || k.Crv != jwkCrvSecp256k1 {
		return nil, errors.Errorf("unsupported jwk %s/%s", k.Kty, k.Crv)
	}

	x, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, errors.Wrap(err, "decoding x")
	}
	y, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, errors.Wrap(err, "decoding y")
	}
	if len(x) != 32 || len(y) != 32 {
		return nil, errors.New("jwk coordinates must be 32 bytes")
	}

	pub := make([]byte, 0, Secp256k1PublicKeySize)
	pub = append(pub, 0x04)
	pub = append(pub, x...)
	pub = append(pub, y...)

	return pub, nil
}

// MarshalPrivateKeyPEM wraps raw private key bytes in a PEM block
// whose type carries the algorithm name, e.g.
// "-----BEGIN ED25519 PRIVATE KEY-----".
func MarshalPrivateKeyPEM(kp *KeyPair) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  strings.ToUpper(string(kp.Type)) + " PRIVATE KEY",
		Bytes: kp.Private,
	})
}

// ParsePrivateKeyPEM reverses MarshalPrivateKeyPEM, recomputing the
// public half from the stored private bytes.
func ParsePrivateKeyPEM(data []byte) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	name := strings.TrimSuffix(block.Type, " PRIVATE KEY")
	if name == block.Type {
		return nil, errors.Errorf("unexpected PEM type %q", block.Type)
	}

	t := KeyType(strings.ToLower(name))
	switch t {
	case KeyTypeEd25519, KeyTypeSecp256k1:
	default:
		return nil, errors.Wrapf(ErrUnsupportedKeyType, "%s", name)
	}

	pub, err := PublicKeyFromPrivate(t, block.Bytes)
	if err != nil {
		return nil, err
	}

	return &KeyPair{Type: t, Private: block.Bytes, Public: pub}, nil
}
