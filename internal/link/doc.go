// Package link parses VLESS share links.
//
// A share link has the form
//
//	vless://<uuid>@<host>:<port>[?<query>][#<name>]
//
// Recognised query keys and their defaults:
//
//	flow               ""
//	type               "tcp"
//	sni                ""
//	pbk | publicKey    ""
//	sid | shortId      ""
//	fp  | fingerprint  "chrome"
//
// Parse is pure and performs no network I/O. Malformed input yields an
// errors.FormatError.
package link
