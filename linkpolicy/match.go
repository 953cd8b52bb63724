package linkpolicy

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Whitelist is an ordered set of domains whose links are allowed.
// The zero value and nil both match nothing.
type Whitelist struct {
	entries []domainEntry
}

type domainEntry struct {
	name   string
	labels []string
}

// NewWhitelist builds a whitelist from domain names. Empty names are ignored
// and duplicates are kept only once, in first-seen order.
func NewWhitelist(domains ...string) *Whitelist {
	w := &Whitelist{entries: make([]domainEntry, 0, len(domains))}
	seen := make(map[string]bool, len(domains))
	for _, d := range domains {
		labels := splitLabels(d)
		if len(labels) == 0 || seen[d] {
			continue
		}
		seen[d] = true
		w.entries = append(w.entries, domainEntry{name: d, labels: labels})
	}
	return w
}

// Domains returns the whitelisted domains in order.
func (w *Whitelist) Domains() []string {
	if w == nil {
		return nil
	}
	names := make([]string, len(w.entries))
	for i, e := range w.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of whitelisted domains.
func (w *Whitelist) Len() int {
	if w == nil {
		return 0
	}
	return len(w.entries)
}

// Matches reports whether host equals a whitelisted domain or is a subdomain
// of one.
func (w *Whitelist) Matches(host string) bool {
	if w == nil {
		return false
	}
	hostLabels := splitLabels(host)
	if len(hostLabels) == 0 {
		return false
	}
	for _, e := range w.entries {
		if hasLabelSuffix(hostLabels, e.labels) {
			return true
		}
	}
	return false
}

// Matches reports whether host matches any domain in whitelist.
// Callers checking many hosts should build a Whitelist once instead.
func Matches(host string, whitelist []string) bool {
	return NewWhitelist(whitelist...).Matches(host)
}

// splitLabels splits a domain name into labels. A single trailing dot (the
// DNS root) is dropped.
func splitLabels(name string) []string {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return nil
	}
	return strings.Split(name, ".")
}

// hasLabelSuffix reports whether suffix, aligned to the right, equals the
// last labels of host. host may be longer than suffix, never shorter, so a
// parent of a whitelisted domain does not match.
func hasLabelSuffix(host, suffix []string) bool {
	if len(suffix) > len(host) {
		return false
	}
	offset := len(host) - len(suffix)
	for i, label := range suffix {
		if !labelEqual(host[offset+i], label) {
			return false
		}
	}
	return true
}

// labelEqual compares two labels: ASCII labels ignoring case, anything else
// byte for byte.
func labelEqual(a, b string) bool {
	if isASCII(a) && isASCII(b) {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// PublicSuffixEntries returns the whitelist entries that are public suffixes
// themselves, such as "com.ua" or "рф". Such an entry allows links to every
// domain registered under it.
func PublicSuffixEntries(whitelist []string) []string {
	var found []string
	for _, entry := range whitelist {
		name := strings.TrimSuffix(entry, ".")
		if name == "" {
			continue
		}
		ascii, ok := hostToASCII(name)
		if !ok {
			continue
		}
		ascii = strings.ToLower(ascii)
		if suffix, _ := publicsuffix.PublicSuffix(ascii); suffix == ascii {
			found = append(found, entry)
		}
	}
	return found
}
