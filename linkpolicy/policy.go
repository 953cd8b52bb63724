package linkpolicy

import (
	"fmt"

	"github.com/DmitryBochkarev/string-tools/markup"
)

// anchorTag is the tag name of hyperlink elements.
const anchorTag = "a"

// Verdict is the decision taken for one anchor.
type Verdict uint8

const (
	// Keep leaves the anchor in place.
	Keep Verdict = iota + 1

	// Unwrap removes the anchor element and keeps its children in its place.
	Unwrap
)

// String returns the name of the verdict.
func (v Verdict) String() string {
	switch v {
	case Keep:
		return "keep"
	case Unwrap:
		return "unwrap"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "keep":
		*v = Keep
	case "unwrap":
		*v = Unwrap
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// Policy decides which links stay in a document.
type Policy struct {
	whitelist         *Whitelist
	removeWithoutHost bool
}

// Option configures a Policy.
type Option func(*Policy)

// WithRemoveWithoutHost sets whether links without a host (relative paths,
// fragments, mailto: and the like) are unwrapped. The default is true.
func WithRemoveWithoutHost(remove bool) Option {
	return func(p *Policy) {
		p.removeWithoutHost = remove
	}
}

// NewPolicy creates a Policy allowing links to the whitelisted domains and
// their subdomains.
func NewPolicy(whitelist []string, opts ...Option) *Policy {
	p := &Policy{
		whitelist:         NewWhitelist(whitelist...),
		removeWithoutHost: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Whitelist returns the whitelist the policy matches hosts against.
func (p *Policy) Whitelist() *Whitelist {
	return p.whitelist
}

// RemoveWithoutHost reports whether hostless links are unwrapped.
func (p *Policy) RemoveWithoutHost() bool {
	return p.removeWithoutHost
}

// IsAnchor reports whether n is a hyperlink: an <a> element with an href.
func IsAnchor(n *markup.Node) bool {
	return n.IsElement(anchorTag) && n.HasAttr("href")
}

// Decide returns the verdict for an anchor element. It looks only at the
// anchor's own href; a missing href counts as an empty one.
func (p *Policy) Decide(anchor *markup.Node) Verdict {
	href, _ := anchor.GetAttr("href")
	return p.DecideURL(Classify(href))
}

// DecideURL returns the verdict for a link target that was already
// classified.
func (p *Policy) DecideURL(u ParsedURL) Verdict {
	switch u.Kind {
	case KindWithHost:
		if p.whitelist.Matches(u.Host) {
			return Keep
		}
		return Unwrap
	case KindHostless:
		if p.removeWithoutHost {
			return Unwrap
		}
		return Keep
	default:
		return Keep
	}
}
