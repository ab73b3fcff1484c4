// Package engineconf builds Xray engine configurations from parsed share links.
//
// A synthesized Document has one SOCKS inbound on 127.0.0.1:10808 without
// authentication, three outbounds (the remote VLESS+REALITY server, direct
// and block) and six routing rules applied in RuleOrder:
//
//	geoip:private                     -> direct
//	geosite:private                   -> direct
//	udp 135,137,138,139               -> block
//	ads and tracking domains          -> block
//	udp 443 outside the region        -> block
//	everything from socks-in          -> vless-reality
//
// Summarize and EndpointOf read a Document back, so profiles loaded from
// disk can be displayed and re-exported without the original link.
package engineconf
