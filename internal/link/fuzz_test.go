package link

import (
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add("vless://" + testUUID + "@example.com:443?type=tcp&sni=example.com#MyProfile")
	f.Add("vless://" + testUUID + "@[::1]:1?fp=&pbk=x#%20")
	f.Add("vless://@:")
	f.Add("notascheme://foo")

	f.Fuzz(func(t *testing.T, s string) {
		ep, err := Parse(s)
		if err != nil {
			return
		}
		if ep.Port < 1 || ep.Port > 65535 {
			t.Fatalf("accepted out-of-range port %d", ep.Port)
		}
		if ep.Host == "" || ep.UserID == "" || ep.Name == "" {
			t.Fatalf("accepted empty required field: %+v", *ep)
		}
		if ep.Network == "" || ep.Fingerprint == "" {
			t.Fatalf("defaults not applied: %+v", *ep)
		}
	})
}
