package linkpolicy

import (
	"strings"

	"golang.org/x/net/idna"

	"github.com/DmitryBochkarev/string-tools/markup"
)

// urlAttributes are the attributes whose values are URLs.
var urlAttributes = map[string]bool{
	"action":     true,
	"background": true,
	"cite":       true,
	"codebase":   true,
	"data":       true,
	"formaction": true,
	"href":       true,
	"icon":       true,
	"longdesc":   true,
	"manifest":   true,
	"poster":     true,
	"src":        true,
	"usemap":     true,
}

// IsURLAttribute reports whether the attribute key carries a URL.
func IsURLAttribute(key string) bool {
	return urlAttributes[key]
}

// NormalizeHost rewrites the host of raw to its ASCII-compatible encoding.
// Only the host bytes change; scheme, userinfo, port, path, query and
// fragment are kept exactly. Values that do not parse, values without a
// host, and hosts that cannot be encoded are returned unchanged.
//
// NormalizeHost is idempotent.
func NormalizeHost(raw string) string {
	p := Classify(raw)
	if p.Kind != KindWithHost || p.hostEnd <= p.hostStart {
		return raw
	}

	ascii, ok := hostToASCII(p.Host)
	if !ok || ascii == raw[p.hostStart:p.hostEnd] {
		return raw
	}
	return raw[:p.hostStart] + ascii + raw[p.hostEnd:]
}

// hostToASCII encodes every non-ASCII label of host with IDNA. ASCII labels
// are left as they are, including their case.
func hostToASCII(host string) (string, bool) {
	if isASCII(host) {
		return host, true
	}
	labels := strings.Split(host, ".")
	for i, label := range labels {
		if isASCII(label) {
			continue
		}
		encoded, err := idna.Lookup.ToASCII(label)
		if err != nil {
			// Labels the lookup profile rejects still get a plain
			// punycode form.
			encoded, err = idna.Punycode.ToASCII(label)
			if err != nil {
				return "", false
			}
		}
		labels[i] = encoded
	}
	return strings.Join(labels, "."), true
}

// NormalizeDocument applies NormalizeHost to every URL attribute of every
// element in doc and returns the number of attribute values that changed.
// Elements with no changed attribute still render from their original bytes.
func NormalizeDocument(doc *markup.Document) int {
	count := 0
	for _, n := range doc.Children {
		count += normalizeNode(n)
	}
	return count
}

func normalizeNode(n *markup.Node) int {
	if n.Type != markup.ElementNode {
		return 0
	}

	count := 0
	seen := make(map[string]bool, len(n.Attr))
	for i := range n.Attr {
		a := n.Attr[i]
		// Browsers honour only the first of duplicated attributes.
		if !urlAttributes[a.Key] || seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		if normalized := NormalizeHost(a.Val); normalized != a.Val {
			n.SetAttr(a.Key, normalized)
			count++
		}
	}
	for _, c := range n.Children {
		count += normalizeNode(c)
	}
	return count
}

// NormalizeURLs parses an HTML fragment, normalizes the hosts in its URL
// attributes and renders it back.
func NormalizeURLs(src string) string {
	doc := markup.Parse(src)
	if NormalizeDocument(doc) == 0 {
		return src
	}
	return doc.String()
}
