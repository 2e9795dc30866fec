package cryptography

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairSizes(t *testing.T) {
	tests := map[KeyType]struct {
		priv int
		pub  int
	}{
		KeyTypeEd25519:   {Ed25519PrivateKeySize, Ed25519PublicKeySize},
		KeyTypeSecp256k1: {Secp256k1PrivateKeySize, Secp256k1PublicKeySize},
	}

	for kt, want := range tests {
		t.Run(string(kt), func(t *testing.T) {
			kp, err := GenerateKeyPair(kt)
			require.NoError(t, err)

			assert.Equal(t, kt, kp.Type)
			assert.Len(t, kp.Private, want.priv)
			assert.Len(t, kp.Public, want.pub)
		})
	}
}

func TestGenerateKeyPairUncompressedPoint(t *testing.T) {
	kp, err := GenerateKeyPair(KeyTypeSecp256k1)
	require.NoError(t, err)

	assert.Equal(t, byte(0x04), kp.Public[0])
}

func TestGenerateKeyPairUnsupported(t *testing.T) {
	_, err := GenerateKeyPair(KeyType("rsa"))
	assert.True(t, errors.Is(err, ErrUnsupportedKeyType))
}

func TestPublicKeyFromPrivate(t *testing.T) {
	for _, kt := range []KeyType{KeyTypeEd25519, KeyTypeSecp256k1} {
		t.Run(string(kt), func(t *testing.T) {
			kp, err := GenerateKeyPair(kt)
			require.NoError(t, err)

			pub, err := PublicKeyFromPrivate(kt, kp.Private)
			require.NoError(t, err)
			assert.Equal(t, kp.Public, pub)
		})
	}
}
