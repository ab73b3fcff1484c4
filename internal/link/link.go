package link

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
)

const (
	// Scheme is the share-link prefix accepted by Parse.
	Scheme = "vless://"

	// DefaultName is used when the link carries no #fragment.
	DefaultName = "unnamed"

	DefaultNetwork     = "tcp"
	DefaultFingerprint = "chrome"
)

// Endpoint describes a remote VLESS server as encoded in a share link.
type Endpoint struct {
	Name        string
	Host        string
	Port        int
	UserID      string
	Network     string
	SNI         string
	PublicKey   string
	ShortID     string
	Fingerprint string
	Flow        string
}

// Parse parses a vless:// share link.
//
// The fragment is split off first, then the credential before the first '@',
// then the query after the first '?'. Repeated query keys keep their first
// value; empty values fall back to the defaults.
func Parse(text string) (*Endpoint, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Scheme) {
		return nil, errors.FormatError("not a vless:// link", nil)
	}
	rest := text[len(Scheme):]

	rest, fragment, _ := strings.Cut(rest, "#")
	name := DefaultName
	if fragment != "" {
		name = decodeName(fragment)
	}

	userID, serverPart, ok := strings.Cut(rest, "@")
	if !ok || userID == "" {
		return nil, errors.FormatError("missing user id before '@'", nil)
	}
	if _, err := uuid.FromString(userID); err != nil {
		return nil, errors.FormatError("user id is not a UUID", err)
	}

	hostPort, rawQuery, _ := strings.Cut(serverPart, "?")
	// Some generators emit "host:port/?query".
	hostPort = strings.TrimSuffix(hostPort, "/")

	host, port, err := splitHostPort(hostPort)
	if err != nil {
		return nil, err
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, errors.FormatError("invalid query string", err)
	}

	return &Endpoint{
		Name:        name,
		Host:        host,
		Port:        port,
		UserID:      userID,
		Network:     param(params, DefaultNetwork, "type"),
		SNI:         param(params, "", "sni"),
		PublicKey:   param(params, "", "pbk", "publicKey"),
		ShortID:     param(params, "", "sid", "shortId"),
		Fingerprint: param(params, DefaultFingerprint, "fp", "fingerprint"),
		Flow:        param(params, "", "flow"),
	}, nil
}

// String renders the endpoint back into a share link that Parse accepts.
func (e *Endpoint) String() string {
	q := url.Values{}
	q.Set("encryption", "none")
	q.Set("security", "reality")
	q.Set("type", e.Network)
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("flow", e.Flow)
	set("sni", e.SNI)
	set("pbk", e.PublicKey)
	set("sid", e.ShortID)
	set("fp", e.Fingerprint)

	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString(e.UserID)
	b.WriteByte('@')
	b.WriteString(net.JoinHostPort(e.Host, strconv.Itoa(e.Port)))
	b.WriteByte('?')
	b.WriteString(q.Encode())
	if e.Name != "" {
		b.WriteByte('#')
		b.WriteString(url.PathEscape(e.Name))
	}
	return b.String()
}

func decodeName(fragment string) string {
	decoded, err := url.PathUnescape(fragment)
	if err != nil {
		return fragment
	}
	if decoded == "" {
		return DefaultName
	}
	return decoded
}

func splitHostPort(s string) (string, int, error) {
	var host, portStr string
	if strings.HasPrefix(s, "[") {
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			return "", 0, errors.FormatError("invalid host:port", err)
		}
		host, portStr = h, p
	} else {
		if strings.Count(s, ":") != 1 {
			return "", 0, errors.FormatError("expected exactly one ':' between host and port", nil)
		}
		host, portStr, _ = strings.Cut(s, ":")
	}

	if host == "" {
		return "", 0, errors.FormatError("empty host", nil)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || strings.HasPrefix(portStr, "+") || strings.HasPrefix(portStr, "-") {
		return "", 0, errors.FormatError("port is not a number: "+strconv.Quote(portStr), err)
	}
	if port < 1 || port > 65535 {
		return "", 0, errors.FormatError("port out of range: "+portStr, nil)
	}
	return host, port, nil
}

// param returns the first non-empty first-value among keys, or def.
func param(values url.Values, def string, keys ...string) string {
	for _, k := range keys {
		if vs, ok := values[k]; ok && len(vs) > 0 && vs[0] != "" {
			return vs[0]
		}
	}
	return def
}
