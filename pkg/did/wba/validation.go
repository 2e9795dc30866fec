package wba

import "github.com/pkg/errors"

// Validate checks the document's structural invariants: a well-formed
// did:wba id, controller consistency, and that every relationship
// entry resolves (by id or embedded object) to a listed verification
// method.
func (d *Document) Validate() error {
	if !DID(d.ID).Valid() {
		return errors.Wrapf(ErrInvalidDID, "%s", d.ID)
	}

	if len(d.VerificationMethod) == 0 {
		return errors.New("document has no verification methods")
	}

	ids := make(map[string]struct{}, len(d.VerificationMethod))
	for _, vm := range d.VerificationMethod {
		if vm.ID == "" {
			return errors.New("verification method missing id")
		}
		if vm.PublicKeyMultibase == "" && vm.PublicKeyJwk == nil {
			return errors.Errorf("verification method %s has no key material", vm.ID)
		}
		if vm.PublicKeyMultibase != "" && vm.PublicKeyJwk != nil {
			return errors.Errorf("verification method %s has two key encodings", vm.ID)
		}
		ids[vm.ID] = struct{}{}
	}

	rels := map[string][]VerificationRelationship{
		"authentication":     d.Authentication,
		"keyAgreement":       d.KeyAgreement,
		"humanAuthorization": d.HumanAuthorization,
	}

	for name, list := range rels {
		for _, rel := range list {
			if _, ok := ids[rel.MethodID()]; !ok {
				return errors.Errorf("%s entry %s does not resolve to a verification method", name, rel.MethodID())
			}
		}
	}

	return nil
}
