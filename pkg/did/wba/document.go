package wba

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/agentwire/didwba/pkg/cryptography"
)

type VerificationMethodType string

const (
	Ed25519VerificationKey2018        VerificationMethodType = "Ed25519VerificationKey2018"
	EcdsaSecp256k1VerificationKey2019 VerificationMethodType = "EcdsaSecp256k1VerificationKey2019"
	X25519KeyAgreementKey2019         VerificationMethodType = "X25519KeyAgreementKey2019"
)

const ServiceTypeAgentDescription = "AgentDescription"

// Contexts is the fixed @context set: the base DID context plus the
// security suites for every algorithm family this method can emit.
// It is never trimmed to the algorithms actually present.
var Contexts = []string{
	"https://www.w3.org/ns/did/v1",
	"https://w3id.org/security/suites/jws-2020/v1",
	"https://w3id.org/security/suites/secp256k1-2019/v1",
	"https://w3id.org/security/suites/ed25519-2018/v1",
	"https://w3id.org/security/suites/x25519-2019/v1",
}

// VerificationMethod is a named public key in the document. Exactly
// one of PublicKeyJwk or PublicKeyMultibase is populated, depending
// on the key's algorithm family.
type VerificationMethod struct {
	ID                 string                 `json:"id"`
	Type               VerificationMethodType `json:"type"`
	Controller         string                 `json:"controller"`
	PublicKeyJwk       *cryptography.JWK      `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string                 `json:"publicKeyMultibase,omitempty"`
}

// VerificationRelationship is one entry of a verification
// relationship list: either a string reference to a method's id or a
// full embedded method.
type VerificationRelationship struct {
	Ref      string
	Embedded *VerificationMethod
}

func RefRelationship(id string) VerificationRelationship {
	return VerificationRelationship{Ref: id}
}

func EmbeddedRelationship(vm VerificationMethod) VerificationRelationship {
	return VerificationRelationship{Embedded: &vm}
}

// MethodID returns the method id the entry points at, regardless of
// reference style.
func (r VerificationRelationship) MethodID() string {
	if r.Embedded != nil {
		return r.Embedded.ID
	}
	return r.Ref
}

func (r VerificationRelationship) MarshalJSON() ([]byte, error) {
	if r.Embedded != nil {
		return json.Marshal(r.Embedded)
	}
	return json.Marshal(r.Ref)
}

func (r *VerificationRelationship) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = VerificationRelationship{Ref: s}
		return nil
	}

	vm := &VerificationMethod{}
	if err := json.Unmarshal(b, vm); err != nil {
		return errors.Wrap(err, "unmarshalling verification relationship")
	}

	*r = VerificationRelationship{Embedded: vm}
	return nil
}

type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Document is a did:wba DID document. It is immutable after building
// except for Service, which supports update-or-insert by id.
type Document struct {
	Context            []string                   `json:"@context"`
	ID                 string                     `json:"id"`
	VerificationMethod []VerificationMethod       `json:"verificationMethod"`
	Authentication     []VerificationRelationship `json:"authentication,omitempty"`
	KeyAgreement       []VerificationRelationship `json:"keyAgreement,omitempty"`
	HumanAuthorization []VerificationRelationship `json:"humanAuthorization,omitempty"`
	Service            []Service                  `json:"service,omitempty"`
}

// FindVerificationMethod looks a method up by full id or by its
// fragment (with or without the leading '#').
func (d *Document) FindVerificationMethod(id string) *VerificationMethod {
	for i := range d.VerificationMethod {
		vm := &d.VerificationMethod[i]
		if vm.ID == id {
			return vm
		}
		if frag := fragmentOf(vm.ID); frag != "" && (id == frag || id == "#"+frag) {
			return vm
		}
	}
	return nil
}

// UpsertService replaces the service entry with a matching id in
// place, or appends when no entry matches.
func (d *Document) UpsertService(svc Service) {
	for i := range d.Service {
		if d.Service[i].ID == svc.ID {
			d.Service[i] = svc
			return
		}
	}
	d.Service = append(d.Service, svc)
}
