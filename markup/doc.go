// Package markup turns an HTML fragment into a small mutable tree of text and
// element nodes and renders it back.
//
// The tree is built from the golang.org/x/net/html tokenizer rather than the
// HTML5 tree builder. Every node remembers the exact bytes it was parsed from,
// so rendering an unmodified tree reproduces the input byte-for-byte: entity
// spelling, attribute quoting, tag case and whitespace are all kept. Only an
// element whose attributes were changed through [Node.SetAttr] is rendered
// from its parsed form.
//
// Parsing is tolerant. Markup the tokenizer cannot interpret as a tag ends up
// as text, end tags that close nothing are kept as verbatim text, and elements
// left open at the end of the input are closed implicitly without emitting
// any end tag. Comments and doctypes are carried as text as well; they are
// opaque to everything that walks the tree.
//
// Unlike an HTML5 parser, markup does not apply implicit-close rules, so an
// anchor nested inside another anchor stays nested:
//
//	doc := markup.Parse(`<a href="/x"><a href="/y">y</a></a>`)
//	outer := doc.Children[0] // outer.Children[0] is the inner anchor
package markup
