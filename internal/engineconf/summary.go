package engineconf

import (
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/link"
)

// Summary is the user-visible description of a profile's remote endpoint.
type Summary struct {
	Server      string `json:"server"`
	Port        int    `json:"port"`
	UserID      string `json:"userId"`
	Protocol    string `json:"protocol"`
	Security    string `json:"security"`
	Network     string `json:"network"`
	SNI         string `json:"sni"`
	Fingerprint string `json:"fingerprint"`
}

// Summarize derives a Summary from the remote outbound of doc.
func Summarize(doc *Document) (Summary, error) {
	out, server, err := remote(doc)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Server:   server.Address,
		Port:     server.Port,
		Protocol: "VLESS",
		Security: out.StreamSettings.Security,
		Network:  out.StreamSettings.Network,
	}
	if len(server.Users) > 0 {
		s.UserID = server.Users[0].ID
	}
	if rs := out.StreamSettings.RealitySettings; rs != nil {
		s.SNI = rs.ServerName
		s.Fingerprint = rs.Fingerprint
	}
	if s.Fingerprint == "" {
		s.Fingerprint = link.DefaultFingerprint
	}
	return s, nil
}

// EndpointOf rebuilds the endpoint a document was synthesized from.
// The name is not stored in the document and must be supplied.
func EndpointOf(doc *Document, name string) (*link.Endpoint, error) {
	out, server, err := remote(doc)
	if err != nil {
		return nil, err
	}
	if len(server.Users) == 0 {
		return nil, errors.FormatError("config has no user entry", nil)
	}

	ep := &link.Endpoint{
		Name:        name,
		Host:        server.Address,
		Port:        server.Port,
		UserID:      server.Users[0].ID,
		Flow:        server.Users[0].Flow,
		Network:     out.StreamSettings.Network,
		Fingerprint: link.DefaultFingerprint,
	}
	if ep.Network == "" {
		ep.Network = link.DefaultNetwork
	}
	if rs := out.StreamSettings.RealitySettings; rs != nil {
		ep.SNI = rs.ServerName
		ep.PublicKey = rs.PublicKey
		ep.ShortID = rs.ShortID
		if rs.Fingerprint != "" {
			ep.Fingerprint = rs.Fingerprint
		}
	}
	return ep, nil
}

func remote(doc *Document) (*Outbound, *Server, error) {
	if doc == nil {
		return nil, nil, errors.FormatError("config is empty", nil)
	}
	for i := range doc.Outbounds {
		out := &doc.Outbounds[i]
		if out.Tag != ProxyTag {
			continue
		}
		if out.Settings == nil || len(out.Settings.Vnext) == 0 {
			return nil, nil, errors.FormatError("remote outbound has no server entry", nil)
		}
		if out.StreamSettings == nil {
			return nil, nil, errors.FormatError("remote outbound has no stream settings", nil)
		}
		return out, &out.Settings.Vnext[0], nil
	}
	return nil, nil, errors.FormatError("config has no "+ProxyTag+" outbound", nil)
}
