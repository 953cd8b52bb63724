package linkpolicy

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind is the outcome of classifying a URL.
type Kind uint8

const (
	// KindWithHost is a URL with an authority naming a host.
	KindWithHost Kind = iota + 1

	// KindHostless is a URL without a host: a relative or absolute path,
	// a fragment, or an opaque URL such as mailto:.
	KindHostless

	// KindUnparsable is a value that is not a valid URL reference.
	KindUnparsable
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindWithHost:
		return "with-host"
	case KindHostless:
		return "hostless"
	case KindUnparsable:
		return "unparsable"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "with-host":
		*k = KindWithHost
	case "hostless":
		*k = KindHostless
	case "unparsable":
		*k = KindUnparsable
	default:
		return fmt.Errorf("unknown url kind %q", text)
	}
	return nil
}

// ParsedURL is the classification of a raw attribute value.
// Scheme, Host, Port and Path are only set for the kinds that have them.
type ParsedURL struct {
	Kind Kind

	// Raw is the value that was classified, unchanged.
	Raw string

	// Scheme is the lower-cased scheme, empty for scheme-relative URLs.
	Scheme string

	// Host is the host name as written, percent-decoded, without port or
	// IPv6 brackets. It is not case-folded or IDNA-decoded.
	Host string

	// Port is the port, if the authority carries one.
	Port string

	// Path is the path, or the opaque part of a URL such as mailto:.
	Path string

	// hostStart and hostEnd delimit the host inside Raw. Both are zero when
	// the host cannot be rewritten in place (IPv6 literals).
	hostStart, hostEnd int
}

// Classify parses raw as a URL reference. It never fails: a value that does
// not parse is reported as KindUnparsable.
func Classify(raw string) ParsedURL {
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedURL{Kind: KindUnparsable, Raw: raw}
	}

	path := u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}

	host := u.Hostname()
	if host == "" {
		return ParsedURL{
			Kind:   KindHostless,
			Raw:    raw,
			Scheme: u.Scheme,
			Path:   path,
		}
	}

	p := ParsedURL{
		Kind:   KindWithHost,
		Raw:    raw,
		Scheme: u.Scheme,
		Host:   host,
		Port:   u.Port(),
		Path:   path,
	}
	if start, end, ok := hostSpan(raw, u.Scheme); ok {
		p.hostStart, p.hostEnd = start, end
	}
	return p
}

// HasHost reports whether the URL names a host.
func (p ParsedURL) HasHost() bool {
	return p.Kind == KindWithHost
}

// hostSpan locates the host inside a raw URL that url.Parse accepted with an
// authority. It follows the same splitting rules as url.Parse: the authority
// starts after "//" and ends at the first of "/?#", userinfo ends at the last
// "@", and the port starts at the last ":". IPv6 literals are not reported.
func hostSpan(raw, scheme string) (start, end int, ok bool) {
	if scheme != "" {
		start = len(scheme) + 1
	}
	if !strings.HasPrefix(raw[start:], "//") {
		return 0, 0, false
	}
	start += 2

	authority := raw[start:]
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		start += i + 1
		authority = authority[i+1:]
	}
	if strings.HasPrefix(authority, "[") {
		return 0, 0, false
	}
	if i := strings.LastIndex(authority, ":"); i >= 0 {
		authority = authority[:i]
	}
	return start, start + len(authority), true
}
