package wba

import (
	"github.com/pkg/errors"

	"github.com/agentwire/didwba/internal/utils/logging"
	"github.com/agentwire/didwba/pkg/cryptography"
)

var ErrNoValidSignatures = errors.New("no valid signatures")

// publicKeyOf decodes a verification method's key material into the
// raw form the signature layer works with.
func publicKeyOf(vm *VerificationMethod) (cryptography.KeyType, []byte, error) {
	switch vm.Type {
	case Ed25519VerificationKey2018, X25519KeyAgreementKey2019:
		raw, err := cryptography.DecodeMultibase(vm.PublicKeyMultibase)
		if err != nil {
			return "", nil, errors.Wrap(err, "decoding multibase")
		}
		return cryptography.KeyTypeEd25519, raw, nil
	case EcdsaSecp256k1VerificationKey2019:
		raw, err := cryptography.DecodeJWK(vm.PublicKeyJwk)
		if err != nil {
			return "", nil, errors.Wrap(err, "decoding jwk")
		}
		return cryptography.KeyTypeSecp256k1, raw, nil
	default:
		return "", nil, errors.Errorf("unsupported verification type: %s", vm.Type)
	}
}

// VerifyPayload checks a base64url signature over a canonicalized
// payload against the document's authentication keys. When fragment
// is non-empty only the named method is tried, otherwise every
// authentication method is.
func (d *Document) VerifyPayload(sig string, payload interface{}, fragment string) error {
	if len(d.VerificationMethod) == 0 {
		return errors.New("no verification method specified")
	}

	var candidates []*VerificationMethod

	if fragment != "" {
		vm := d.FindVerificationMethod(fragment)
		if vm == nil {
			return errors.Errorf("no verification method %q", fragment)
		}
		candidates = append(candidates, vm)
	} else {
		for _, rel := range d.Authentication {
			if vm := d.FindVerificationMethod(rel.MethodID()); vm != nil {
				candidates = append(candidates, vm)
			}
		}
	}

	for _, vm := range candidates {
		t, pub, err := publicKeyOf(vm)
		if err != nil {
			logging.Entry().WithField("type", vm.Type).WithError(err).Debug("decoding verification method")
			continue
		}

		if cryptography.VerifyPayload(t, pub, sig, payload) {
			return nil
		}
	}

	return ErrNoValidSignatures
}
