package wba

import (
	"strings"

	"github.com/pkg/errors"
)

// Scheme is the Authorization scheme carried on inter-agent requests.
const Scheme = "DIDWba"

// AuthPayload is the signed payload shape. It is the only structure
// the canonicalization and signing contract covers; larger request
// bodies are outside the signing guarantee.
type AuthPayload struct {
	Nonce     string `json:"nonce"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	DID       string `json:"did"`
}

// AuthHeader is the parsed form of a DIDWba Authorization header.
// Nonce, timestamp and verification method ride along so the
// receiver can rebuild the exact payload that was signed.
type AuthHeader struct {
	DID                string
	Nonce              string
	Timestamp          string
	VerificationMethod string
	Signature          string
}

// Payload rebuilds the signed payload for the service the receiver
// knows itself as.
func (h *AuthHeader) Payload(service string) AuthPayload {
	return AuthPayload{
		Nonce:     h.Nonce,
		Timestamp: h.Timestamp,
		Service:   service,
		DID:       h.DID,
	}
}

func (h *AuthHeader) String() string {
	parts := []string{
		`did="` + h.DID + `"`,
		`nonce="` + h.Nonce + `"`,
		`timestamp="` + h.Timestamp + `"`,
		`verification_method="` + h.VerificationMethod + `"`,
		`signature="` + h.Signature + `"`,
	}
	return Scheme + " " + strings.Join(parts, ", ")
}

// ParseAuthHeader parses an Authorization header value of the form
//
//	DIDWba did="…", nonce="…", timestamp="…", verification_method="…", signature="…"
func ParseAuthHeader(v string) (*AuthHeader, error) {
	rest := strings.TrimSpace(v)
	if !strings.HasPrefix(rest, Scheme) {
		return nil, errors.Errorf("not a %s header", Scheme)
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, Scheme))

	h := &AuthHeader{}
	for _, part := range strings.Split(rest, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("malformed header segment %q", part)
		}

		val := strings.Trim(kv[1], `"`)
		switch kv[0] {
		case "did":
			h.DID = val
		case "nonce":
			h.Nonce = val
		case "timestamp":
			h.Timestamp = val
		case "verification_method":
			h.VerificationMethod = val
		case "signature":
			h.Signature = val
		default:
			// ignore unknown parameters
		}
	}

	if h.DID == "" || h.Signature == "" {
		return nil, errors.New("header missing did or signature")
	}

	return h, nil
}
