package markup

// NodeType discriminates the two kinds of node in a Document.
type NodeType uint8

const (
	// TextNode holds character data verbatim. Comments, doctypes and
	// unmatched end tags are also carried as text nodes.
	TextNode NodeType = iota + 1

	// ElementNode is a tag with attributes and child nodes.
	ElementNode
)

// String returns the name of the node type.
func (t NodeType) String() string {
	switch t {
	case TextNode:
		return "text"
	case ElementNode:
		return "element"
	default:
		return "unknown"
	}
}

// Attribute is a single decoded attribute of an element.
// Key is lower-cased; Val has character references resolved.
type Attribute struct {
	Key string
	Val string
}

// Node is either a text node or an element node, selected by Type.
//
// For a TextNode, Data is the raw text exactly as it appeared in the input.
// For an ElementNode, Data is the lower-cased tag name, Attr the decoded
// attributes in source order, and Children the child nodes in order.
type Node struct {
	Type     NodeType
	Data     string
	Attr     []Attribute
	Children []*Node

	// SelfClosing reports whether the start tag ended with "/>".
	SelfClosing bool

	// open and end hold the exact bytes of the start and end tags when the
	// node came from Parse. end is empty for elements that were closed
	// implicitly. parsed is false for nodes built with NewElement.
	open   string
	end    string
	parsed bool

	// dirty is set when attributes were changed after parsing, which makes
	// Render regenerate the start tag.
	dirty bool
}

// Document is an ordered sequence of top-level nodes.
type Document struct {
	Children []*Node
}

// NewText returns a text node. The content is rendered as given, so it must
// already be valid markup (escape it with html.EscapeString if needed).
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// NewElement returns an element node with the given tag, attributes and
// children. Its tags are generated when rendered.
func NewElement(tag string, attrs []Attribute, children ...*Node) *Node {
	return &Node{
		Type:     ElementNode,
		Data:     tag,
		Attr:     attrs,
		Children: children,
	}
}

// IsElement reports whether n is an element with the given tag name.
func (n *Node) IsElement(tag string) bool {
	return n.Type == ElementNode && n.Data == tag
}

// GetAttr returns the value of the named attribute and whether it was present.
func (n *Node) GetAttr(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.GetAttr(key)
	return ok
}

// SetAttr sets (or adds) the attribute key=val on n. Setting an attribute to
// the value it already has leaves the node untouched, so it still renders
// from its original bytes.
func (n *Node) SetAttr(key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			if a.Val == val {
				return
			}
			n.Attr[i].Val = val
			n.dirty = true
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
	n.dirty = true
}

// RemoveAttr removes the named attribute from n if present.
func (n *Node) RemoveAttr(key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			attrs = append(attrs, a)
		}
	}
	if len(attrs) != len(n.Attr) {
		n.dirty = true
	}
	n.Attr = attrs
}

// Modified reports whether the start tag of n will be regenerated by Render
// instead of copied from the input.
func (n *Node) Modified() bool {
	return n.Type == ElementNode && (n.dirty || !n.parsed)
}

// voidElements never have content and never get an end tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"keygen": true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoid reports whether tag is an HTML void element.
func IsVoid(tag string) bool {
	return voidElements[tag]
}
