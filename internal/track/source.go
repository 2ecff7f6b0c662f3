package track

import (
	"net/url"
	"strings"
)

type Format string

const (
	FormatKML Format = "kml"
	FormatGPX Format = "gpx"
)

// FormatOf picks the parser from the file extension; anything that is not
// .kml is read as GPX.
func FormatOf(rawURL string) Format {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	if strings.HasSuffix(strings.ToLower(path), ".kml") {
		return FormatKML
	}
	return FormatGPX
}

// ProxyURL routes rawURL through proxy. The proxied target is always https.
func ProxyURL(proxy, rawURL string) string {
	if proxy == "" {
		return rawURL
	}
	target := rawURL
	switch {
	case strings.HasPrefix(target, "http://"):
		target = "https://" + strings.TrimPrefix(target, "http://")
	case strings.HasPrefix(target, "https://"):
	default:
		target = "https://" + target
	}
	return proxy + target
}

// ProtocolURL is the address a map client loads the file from on its own:
// the proxied URL prefixed with the format protocol, e.g. kml://https://...
func ProtocolURL(proxy, rawURL string) string {
	return string(FormatOf(rawURL)) + "://" + ProxyURL(proxy, rawURL)
}
