package markup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Render writes doc to w. Parsed nodes whose attributes were not changed are
// written from their original bytes.
func Render(w io.Writer, doc *Document) error {
	var sb strings.Builder
	for _, n := range doc.Children {
		renderNode(&sb, n)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders the document into a string.
func (d *Document) String() string {
	var sb strings.Builder
	for _, n := range d.Children {
		renderNode(&sb, n)
	}
	return sb.String()
}

// String renders the node and its descendants into a string.
func (n *Node) String() string {
	var sb strings.Builder
	renderNode(&sb, n)
	return sb.String()
}

func renderNode(sb *strings.Builder, n *Node) {
	switch n.Type {
	case TextNode:
		sb.WriteString(n.Data)
	case ElementNode:
		if n.parsed && !n.dirty {
			sb.WriteString(n.open)
		} else {
			writeStartTag(sb, n)
		}
		for _, c := range n.Children {
			renderNode(sb, c)
		}
		switch {
		case n.parsed:
			sb.WriteString(n.end)
		case !n.SelfClosing && !IsVoid(n.Data):
			sb.WriteString("</")
			sb.WriteString(n.Data)
			sb.WriteByte('>')
		}
	}
}

func writeStartTag(sb *strings.Builder, n *Node) {
	sb.WriteByte('<')
	sb.WriteString(n.Data)
	for _, a := range n.Attr {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteByte('"')
	}
	if n.SelfClosing {
		sb.WriteString(" />")
		return
	}
	sb.WriteByte('>')
}
