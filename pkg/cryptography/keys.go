package cryptography

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"

	ethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

type KeyType string

const (
	KeyTypeEd25519   KeyType = "ed25519"
	KeyTypeSecp256k1 KeyType = "secp256k1"
)

const (
	Ed25519PrivateKeySize = 32
	Ed25519PublicKeySize  = 32

	Secp256k1PrivateKeySize = 32
	Secp256k1PublicKeySize  = 65
)

var (
	ErrUnsupportedKeyType = errors.New("unsupported key type")
)

// KeyPair holds raw key material for a single asymmetric key pair.
// It carries no document semantics; encoding rules live with the
// DID document builder.
type KeyPair struct {
	Type    KeyType
	Private []byte
	Public  []byte
}

// GenerateKeyPair creates a new key pair for the requested algorithm
// from crypto/rand.
//
// Ed25519 keys are stored as the 32-byte seed and 32-byte public key.
// Secp256k1 keys are stored as the 32-byte scalar and the 65-byte
// uncompressed point (0x04 || X || Y).
func GenerateKeyPair(t KeyType) (*KeyPair, error) {
	switch t {
	case KeyTypeEd25519:
		return generateEd25519()
	case KeyTypeSecp256k1:
		return generateSecp256k1()
	default:
		return nil, errors.Wrapf(ErrUnsupportedKeyType, "%s", t)
	}
}

func generateEd25519() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generating ed25519 key")
	}

	return &KeyPair{
		Type:    KeyTypeEd25519,
		Private: priv.Seed(),
		Public:  pub,
	}, nil
}

func generateSecp256k1() (*KeyPair, error) {
	pk, err := ecdsa.GenerateKey(ethCrypto.S256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generating secp256k1 key")
	}

	return &KeyPair{
		Type:    KeyTypeSecp256k1,
		Private: ethCrypto.FromECDSA(pk),
		Public:  ethCrypto.FromECDSAPub(&pk.PublicKey),
	}, nil
}

// PublicKeyFromPrivate recomputes the raw public key for a stored
// private key, used when rehydrating identities from disk.
func PublicKeyFromPrivate(t KeyType, priv []byte) ([]byte, error) {
	switch t {
	case KeyTypeEd25519:
		if len(priv) != Ed25519PrivateKeySize {
			return nil, errors.Errorf("ed25519 seed must be %d bytes, got %d", Ed25519PrivateKeySize, len(priv))
		}
		sk := ed25519.NewKeyFromSeed(priv)
		return sk.Public().(ed25519.PublicKey), nil
	case KeyTypeSecp256k1:
		pk, err := ethCrypto.ToECDSA(priv)
		if err != nil {
			return nil, errors.Wrap(err, "parsing secp256k1 scalar")
		}
		return ethCrypto.FromECDSAPub(&pk.PublicKey), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedKeyType, "%s", t)
	}
}
