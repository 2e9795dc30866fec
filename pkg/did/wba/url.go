package wba

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	Method = "wba"
	prefix = "did:" + Method + ":"
)

var ErrInvalidDID = errors.New("invalid did:wba identifier")

// DID is a did:wba identifier of the form
// did:wba:<domain> or did:wba:<domain>:<path>, where path segments
// are joined by ':'.
type DID string

// FormatDID builds the identifier for a domain and optional path.
func FormatDID(domain, path string) DID {
	if path == "" {
		return DID(prefix + domain)
	}
	return DID(prefix + domain + ":" + path)
}

func (d DID) Valid() bool {
	_, _, err := d.Parts()
	return err == nil
}

// Parts splits the identifier into domain and path. The path keeps
// its ':' separators; it is empty for domain-only identifiers.
func (d DID) Parts() (domain, path string, err error) {
	s := string(d)
	if !strings.HasPrefix(s, prefix) {
		return "", "", errors.Wrapf(ErrInvalidDID, "%s", s)
	}

	rest := strings.TrimPrefix(s, prefix)
	if rest == "" {
		return "", "", errors.Wrapf(ErrInvalidDID, "%s", s)
	}

	p := strings.SplitN(rest, ":", 2)
	domain = p[0]
	if domain == "" || strings.ContainsAny(domain, "/#?") {
		return "", "", errors.Wrapf(ErrInvalidDID, "%s", s)
	}
	if len(p) == 2 {
		path = p[1]
		if path == "" {
			return "", "", errors.Wrapf(ErrInvalidDID, "%s", s)
		}
	}

	return domain, path, nil
}

// DocumentURL is the well-known location the document is served from:
// the domain root for path-less identifiers, otherwise under the
// path with ':' mapped to '/'.
func (d DID) DocumentURL() (string, error) {
	domain, path, err := d.Parts()
	if err != nil {
		return "", err
	}

	if path == "" {
		return fmt.Sprintf("https://%s/.well-known/did.json", domain), nil
	}

	return fmt.Sprintf("https://%s/%s/did.json", domain, strings.ReplaceAll(path, ":", "/")), nil
}

// AgentDescriptionURL is the conventional location of the agent's
// non-cryptographic description document.
func AgentDescriptionURL(domain, path string) string {
	if path == "" {
		path = "default"
	}
	return fmt.Sprintf("https://%s/agents/%s/ad.json", domain, path)
}

func fragmentOf(id string) string {
	if i := strings.IndexByte(id, '#'); i >= 0 {
		return id[i+1:]
	}
	return ""
}
