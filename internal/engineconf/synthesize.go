package engineconf

import (
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/link"
)

// Local listener. Not configurable.
const (
	ListenAddress = "127.0.0.1"
	ListenPort    = 10808
)

// Tags shared between outbounds and routing rules.
const (
	InboundTag  = "socks-in"
	ProxyTag    = "vless-reality"
	DirectTag   = "direct"
	BlockTag    = "block"
	ruleType    = "field"
	SecurityTag = "reality"
)

const (
	DefaultLogLevel        = "info"
	DefaultRegionException = "ru"
	DefaultDomainStrategy  = "IPIfNonMatch"
)

// RuleKind names a routing rule by its role.
type RuleKind string

const (
	RuleBypassPrivateIP     RuleKind = "bypass-private-ip"
	RuleBypassPrivateDomain RuleKind = "bypass-private-domain"
	RuleBlockNetBIOS        RuleKind = "block-netbios"
	RuleBlockTracking       RuleKind = "block-tracking"
	RuleBlockQUIC           RuleKind = "block-quic"
	RuleProxyDefault        RuleKind = "proxy-default"
)

// RuleOrder is the precedence in which Synthesize emits rules.
// Bypass rules come before block rules, and the catch-all proxy rule is last.
var RuleOrder = []RuleKind{
	RuleBypassPrivateIP,
	RuleBypassPrivateDomain,
	RuleBlockNetBIOS,
	RuleBlockTracking,
	RuleBlockQUIC,
	RuleProxyDefault,
}

// NetBIOSPorts are the UDP ports blocked by RuleBlockNetBIOS.
const NetBIOSPorts = "135,137,138,139"

// TrackingDomains are blocked by RuleBlockTracking.
var TrackingDomains = []string{
	"geosite:category-ads-all",
	"google-analytics",
	"analytics.yandex",
	"appcenter.ms",
	"app-measurement.com",
	"firebase.io",
	"crashlytics.com",
}

type options struct {
	logLevel        string
	regionException string
}

// Option configures Synthesize.
type Option func(*options)

// WithLogLevel sets the engine log level ("debug", "info", "warning", "error", "none").
func WithLogLevel(level string) Option {
	return func(o *options) {
		if level != "" {
			o.logLevel = level
		}
	}
}

// WithRegionException sets the geoip region whose UDP/443 traffic is not
// blocked by RuleBlockQUIC.
func WithRegionException(code string) Option {
	return func(o *options) {
		if code != "" {
			o.regionException = strings.ToLower(code)
		}
	}
}

// Synthesize builds the engine configuration for ep.
func Synthesize(ep *link.Endpoint, opts ...Option) *Document {
	o := options{
		logLevel:        DefaultLogLevel,
		regionException: DefaultRegionException,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rules := make([]Rule, 0, len(RuleOrder))
	for _, kind := range RuleOrder {
		rules = append(rules, buildRule(kind, o))
	}

	return &Document{
		Log: LogSettings{LogLevel: o.logLevel},
		Inbounds: []Inbound{{
			Tag:      InboundTag,
			Port:     ListenPort,
			Listen:   ListenAddress,
			Protocol: "socks",
			Settings: InboundSettings{Auth: "noauth"},
		}},
		Outbounds: []Outbound{
			proxyOutbound(ep),
			{Tag: DirectTag, Protocol: "freedom"},
			{Tag: BlockTag, Protocol: "blackhole"},
		},
		Routing: Routing{
			DomainStrategy: DefaultDomainStrategy,
			Rules:          rules,
		},
	}
}

func proxyOutbound(ep *link.Endpoint) Outbound {
	return Outbound{
		Tag:      ProxyTag,
		Protocol: "vless",
		Settings: &OutboundSettings{
			Vnext: []Server{{
				Address: ep.Host,
				Port:    ep.Port,
				Users: []User{{
					ID:         ep.UserID,
					Encryption: "none",
					Flow:       ep.Flow,
				}},
			}},
		},
		StreamSettings: &StreamSettings{
			Network:  ep.Network,
			Security: SecurityTag,
			RealitySettings: &RealitySettings{
				ServerName:  ep.SNI,
				PublicKey:   ep.PublicKey,
				ShortID:     ep.ShortID,
				Fingerprint: ep.Fingerprint,
				SpiderX:     "/",
			},
		},
	}
}

func buildRule(kind RuleKind, o options) Rule {
	switch kind {
	case RuleBypassPrivateIP:
		return Rule{Type: ruleType, IP: []string{"geoip:private"}, OutboundTag: DirectTag}
	case RuleBypassPrivateDomain:
		return Rule{Type: ruleType, Domain: []string{"geosite:private"}, OutboundTag: DirectTag}
	case RuleBlockNetBIOS:
		return Rule{Type: ruleType, Network: "udp", Port: NetBIOSPorts, OutboundTag: BlockTag}
	case RuleBlockTracking:
		domains := make([]string, len(TrackingDomains))
		copy(domains, TrackingDomains)
		return Rule{Type: ruleType, Domain: domains, OutboundTag: BlockTag}
	case RuleBlockQUIC:
		return Rule{Type: ruleType, Network: "udp", Port: "443", IP: []string{"geoip:!" + o.regionException}, OutboundTag: BlockTag}
	case RuleProxyDefault:
		return Rule{Type: ruleType, InboundTag: []string{InboundTag}, OutboundTag: ProxyTag}
	}
	panic("engineconf: unknown rule kind " + string(kind))
}

// Classify reports which RuleKind a synthesized rule plays, or "" when the
// rule does not match any known shape.
func Classify(r Rule) RuleKind {
	switch {
	case r.OutboundTag == DirectTag && len(r.IP) == 1 && r.IP[0] == "geoip:private":
		return RuleBypassPrivateIP
	case r.OutboundTag == DirectTag && len(r.Domain) == 1 && r.Domain[0] == "geosite:private":
		return RuleBypassPrivateDomain
	case r.OutboundTag == BlockTag && r.Network == "udp" && r.Port == NetBIOSPorts:
		return RuleBlockNetBIOS
	case r.OutboundTag == BlockTag && len(r.Domain) > 0:
		return RuleBlockTracking
	case r.OutboundTag == BlockTag && r.Network == "udp" && r.Port == "443":
		return RuleBlockQUIC
	case r.OutboundTag == ProxyTag && len(r.InboundTag) == 1 && r.InboundTag[0] == InboundTag:
		return RuleProxyDefault
	}
	return ""
}
