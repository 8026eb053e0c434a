package export

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// normalizeLink turns a cell value into an absolute http(s) URL with an
// ASCII host. ok is false when raw cannot be used as a hyperlink.
func normalizeLink(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", false
	}

	host, port := u.Hostname(), u.Port()
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", false
	}
	if port != "" {
		ascii += ":" + port
	}
	u.Host = ascii
	u.Scheme = strings.ToLower(u.Scheme)
	return u.String(), true
}
