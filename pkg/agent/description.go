package agent

import "time"

// Description is the free-form agent profile served at ad.json. It
// has no cryptographic role and can evolve without affecting
// signature validity.
type Description struct {
	Name               string      `json:"name"`
	DID                string      `json:"did"`
	Description        string      `json:"description"`
	Version            string      `json:"version"`
	Created            string      `json:"created"`
	Interfaces         []Interface `json:"interfaces"`
	Capabilities       []string    `json:"capabilities"`
	SupportedProtocols []string    `json:"supportedProtocols"`
}

// Interface describes one way of interacting with the agent.
type Interface struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Profile is the operator-supplied portion of the description.
type Profile struct {
	Name               string
	Description        string
	Version            string
	Interfaces         []Interface
	Capabilities       []string
	SupportedProtocols []string
}

// Describe assembles the published description for an identity.
func (id *Identity) Describe(p Profile) *Description {
	d := &Description{
		Name:               p.Name,
		DID:                string(id.DID),
		Description:        p.Description,
		Version:            p.Version,
		Created:            id.Created.Format(time.RFC3339),
		Interfaces:         p.Interfaces,
		Capabilities:       p.Capabilities,
		SupportedProtocols: p.SupportedProtocols,
	}

	if d.Interfaces == nil {
		d.Interfaces = []Interface{}
	}
	if d.Capabilities == nil {
		d.Capabilities = []string{}
	}
	if len(d.SupportedProtocols) == 0 {
		d.SupportedProtocols = []string{"didwba"}
	}

	return d
}
