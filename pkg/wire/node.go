package wire

// Markers identifying each encoded value on the wire.
const (
	markerAbsent   byte = 0x00
	markerToken    byte = 0x01
	markerString8  byte = 0x02
	markerString20 byte = 0x03
	markerBytes20  byte = 0x04
	markerInt8     byte = 0x05
	markerArray8   byte = 0x06
	markerNode     byte = 0x07
)

// maxLen20 is the largest length a 20-bit prefix can describe.
const maxLen20 = 1<<20 - 1

// Attr is a single node attribute. Attribute order is significant and
// preserved across encode/decode.
type Attr struct {
	Key   string
	Value any
}

// Node is the recursive tagged-tree unit of the wire format.
//
// Content holds one of: nil (absent), string, int64, []byte, []any, or
// *Node. Elements of an []any value are drawn from the same set. Encode
// also accepts untyped int values and normalizes them to int64 on the
// wire; Decode always yields int64.
type Node struct {
	Tag     string
	Attrs   []Attr
	Content any
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (any, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// AttrString returns the named attribute as a string, or "" if it is
// missing or not a string.
func (n *Node) AttrString(key string) string {
	v, ok := n.Attr(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// SetAttr appends or replaces an attribute, keeping existing order.
func (n *Node) SetAttr(key string, value any) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// Children returns the child nodes of an array-valued content, skipping
// non-node elements. Returns nil when content is not an array.
func (n *Node) Children() []*Node {
	arr, ok := n.Content.([]any)
	if !ok {
		return nil
	}
	var out []*Node
	for _, el := range arr {
		if child, ok := el.(*Node); ok {
			out = append(out, child)
		}
	}
	return out
}
