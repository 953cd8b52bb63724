package linkpolicy

import (
	"github.com/DmitryBochkarev/string-tools/markup"
)

// Decision records the verdict taken for one anchor during Rewrite.
type Decision struct {
	// Href is the anchor's href attribute.
	Href string `json:"href"`

	// URL is the classification of Href.
	URL ParsedURL `json:"-"`

	// Verdict is what happened to the anchor.
	Verdict Verdict `json:"verdict"`
}

// Rewrite unwraps every anchor in doc that the policy does not keep and
// returns the decisions in the order they were taken. An element's children
// are always rewritten before the element itself, so nested anchors are
// decided innermost first.
func (p *Policy) Rewrite(doc *markup.Document) []Decision {
	r := &rewriter{policy: p}
	doc.Children = r.rewrite(doc.Children)
	return r.decisions
}

type rewriter struct {
	policy    *Policy
	decisions []Decision
}

// rewrite returns the new child sequence for nodes. Unwrapped anchors are
// replaced by their own, already rewritten, children.
func (r *rewriter) rewrite(nodes []*markup.Node) []*markup.Node {
	out := make([]*markup.Node, 0, len(nodes))
	for _, n := range nodes {
		switch n.Type {
		case markup.TextNode:
			out = append(out, n)
		case markup.ElementNode:
			n.Children = r.rewrite(n.Children)
			if !IsAnchor(n) {
				out = append(out, n)
				continue
			}

			href, _ := n.GetAttr("href")
			u := Classify(href)
			verdict := r.policy.DecideURL(u)
			r.decisions = append(r.decisions, Decision{Href: href, URL: u, Verdict: verdict})

			if verdict == Keep {
				out = append(out, n)
			} else {
				out = append(out, n.Children...)
			}
		}
	}
	return out
}

// RemoveLinks unwraps every anchor in the HTML fragment src whose target is
// not allowed by the whitelist and returns the resulting markup. Anything the
// rewrite did not touch is returned exactly as written.
//
// With no options, links without a host are removed as well; pass
// WithRemoveWithoutHost(false) to keep them.
func RemoveLinks(src string, whitelist []string, opts ...Option) string {
	doc := markup.Parse(src)
	for _, d := range NewPolicy(whitelist, opts...).Rewrite(doc) {
		if d.Verdict == Unwrap {
			return doc.String()
		}
	}
	return src
}
