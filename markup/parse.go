package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Parse builds a Document from an HTML fragment. It never fails: whatever the
// tokenizer cannot interpret is kept as text, so rendering the result always
// reproduces src exactly.
func Parse(src string) *Document {
	doc := &Document{}
	b := &builder{doc: doc}

	z := html.NewTokenizer(strings.NewReader(src))
	consumed := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		// Raw must be copied before TagName/TagAttr, which rewrite the
		// tokenizer's buffer in place.
		raw := string(z.Raw())
		consumed += len(raw)

		switch tt {
		case html.TextToken, html.CommentToken, html.DoctypeToken:
			b.append(NewText(raw))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			b.start(string(name), readAttrs(z, hasAttr), raw, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			name, _ := z.TagName()
			b.end(string(name), raw)
		}
	}

	// The tokenizer drops a tag that is cut off by the end of input.
	if consumed < len(src) {
		b.append(NewText(src[consumed:]))
	}

	return doc
}

// readAttrs copies the attributes of the current tag out of the tokenizer.
func readAttrs(z *html.Tokenizer, more bool) []Attribute {
	var attrs []Attribute
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attrs = append(attrs, Attribute{Key: string(key), Val: string(val)})
	}
	return attrs
}

// builder keeps the stack of open elements while tokens are consumed.
type builder struct {
	doc   *Document
	stack []*Node
}

// append adds n as the last child of the innermost open element.
func (b *builder) append(n *Node) {
	if len(b.stack) == 0 {
		b.doc.Children = append(b.doc.Children, n)
		return
	}
	top := b.stack[len(b.stack)-1]
	top.Children = append(top.Children, n)
}

// start opens a new element. Void and self-closing elements are not pushed.
func (b *builder) start(tag string, attrs []Attribute, raw string, selfClosing bool) {
	n := &Node{
		Type:        ElementNode,
		Data:        tag,
		Attr:        attrs,
		SelfClosing: selfClosing,
		open:        raw,
		parsed:      true,
	}
	b.append(n)
	if selfClosing || IsVoid(tag) {
		return
	}
	b.stack = append(b.stack, n)
}

// end closes the innermost open element named tag, closing everything opened
// after it implicitly. An end tag with no matching open element is kept as
// text.
func (b *builder) end(tag, raw string) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].Data == tag {
			b.stack[i].end = raw
			b.stack = b.stack[:i]
			return
		}
	}
	b.append(NewText(raw))
}
