package wire

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		node *Node
	}{
		{
			name: "iq with string content",
			node: &Node{
				Tag: "iq",
				Attrs: []Attr{
					{Key: "type", Value: "get"},
					{Key: "id", Value: "1"},
				},
				Content: "hello",
			},
		},
		{
			name: "empty node",
			node: &Node{},
		},
		{
			name: "tag only",
			node: &Node{Tag: "presence"},
		},
		{
			name: "non-dictionary tag",
			node: &Node{Tag: "x-custom-element"},
		},
		{
			name: "byte content",
			node: &Node{
				Tag:     "media",
				Attrs:   []Attr{{Key: "mimetype", Value: "image"}},
				Content: []byte{0x00, 0x01, 0xFF, 0xFE},
			},
		},
		{
			name: "integer attribute",
			node: &Node{
				Tag:   "receipt",
				Attrs: []Attr{{Key: "count", Value: int64(42)}},
			},
		},
		{
			name: "long string content",
			node: &Node{
				Tag:     "body",
				Content: strings.Repeat("a", 4096),
			},
		},
		{
			name: "nested children",
			node: &Node{
				Tag:   "action",
				Attrs: []Attr{{Key: "type", Value: "set"}},
				Content: []any{
					&Node{
						Tag:     "message",
						Attrs:   []Attr{{Key: "id", Value: "m-1"}},
						Content: []byte("ciphertext"),
					},
					&Node{
						Tag:   "receipt",
						Attrs: []Attr{{Key: "to", Value: "user-17"}},
					},
				},
			},
		},
		{
			name: "mixed array content",
			node: &Node{
				Tag: "query",
				Content: []any{
					"literal",
					int64(7),
					[]byte{0xAB},
					nil,
					&Node{Tag: "group"},
				},
			},
		},
		{
			name: "deep nesting",
			node: &Node{
				Tag: "sync",
				Content: []any{
					&Node{
						Tag: "contacts",
						Content: []any{
							&Node{
								Tag:     "user",
								Attrs:   []Attr{{Key: "name", Value: "alice"}},
								Content: &Node{Tag: "status", Content: "available"},
							},
						},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.node)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if len(encoded) == 0 {
				t.Fatal("Encode() returned empty bytes")
			}

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if !reflect.DeepEqual(decoded, tt.node) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", decoded, tt.node)
			}
		})
	}
}

func TestEncodeUsesTokenDictionary(t *testing.T) {
	short, err := Encode(&Node{Tag: "message"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	long, err := Encode(&Node{Tag: "zzz-not-a-token"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if len(short) >= len(long) {
		t.Errorf("dictionary tag encoded in %d bytes, literal in %d; expected dictionary to be shorter", len(short), len(long))
	}
	if short[1] != markerToken {
		t.Errorf("tag marker = 0x%02X, want token marker", short[1])
	}
}

func TestDecodeTruncatedInput(t *testing.T) {
	node := &Node{
		Tag: "iq",
		Attrs: []Attr{
			{Key: "type", Value: "get"},
			{Key: "id", Value: "long-identifier-value"},
		},
		Content: []byte(strings.Repeat("x", 300)),
	}
	encoded, err := Encode(node)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Every proper prefix must fail with a CodecError, never panic.
	for cut := 0; cut < len(encoded); cut++ {
		_, err := Decode(encoded[:cut])
		if err == nil {
			t.Fatalf("Decode() of %d-byte prefix succeeded, want error", cut)
		}
		if _, ok := err.(*CodecError); !ok {
			t.Fatalf("Decode() of %d-byte prefix returned %T, want *CodecError", cut, err)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty buffer", nil},
		{"not a node", []byte{markerString8, 2, 'h', 'i'}},
		{"unknown marker", []byte{markerNode, markerAbsent, 0, 0x7F}},
		{"invalid token index", []byte{markerNode, markerToken, 0xFE, 0, markerAbsent}},
		{"token index zero", []byte{markerNode, markerToken, 0x00, 0, markerAbsent}},
		{"integer tag", []byte{markerNode, markerInt8, 5, 0, markerAbsent}},
		{"truncated length prefix", []byte{markerNode, markerString20, 0x00}},
		{"length past buffer", []byte{markerNode, markerBytes20, 0x0F, 0xFF, 0xFF, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if err == nil {
				t.Fatal("Decode() succeeded on malformed input")
			}
			if _, ok := err.(*CodecError); !ok {
				t.Errorf("Decode() returned %T, want *CodecError", err)
			}
		})
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	encoded, err := Encode(&Node{Tag: "ack"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	_, err = Decode(append(bytes.Clone(encoded), 0xAA))
	if err == nil {
		t.Fatal("Decode() accepted trailing bytes")
	}
}

func TestEncodeRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name string
		node *Node
	}{
		{"negative int", &Node{Tag: "iq", Content: int64(-1)}},
		{"oversized int", &Node{Tag: "iq", Content: int64(256)}},
		{"float content", &Node{Tag: "iq", Content: 3.14}},
		{"map content", &Node{Tag: "iq", Content: map[string]string{"a": "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Encode(tt.node); err == nil {
				t.Fatal("Encode() accepted unsupported value")
			}
		})
	}
}

func TestNodeAttrHelpers(t *testing.T) {
	n := &Node{Tag: "message"}
	n.SetAttr("id", "m-9")
	n.SetAttr("type", "chat")
	n.SetAttr("id", "m-10") // replace, not append

	if got := n.AttrString("id"); got != "m-10" {
		t.Errorf("AttrString(id) = %q, want %q", got, "m-10")
	}
	if len(n.Attrs) != 2 {
		t.Errorf("len(Attrs) = %d, want 2", len(n.Attrs))
	}
	if _, ok := n.Attr("missing"); ok {
		t.Error("Attr(missing) reported present")
	}
}

func TestChildren(t *testing.T) {
	n := &Node{
		Tag: "action",
		Content: []any{
			&Node{Tag: "message"},
			"stray string",
			&Node{Tag: "receipt"},
		},
	}

	children := n.Children()
	if len(children) != 2 {
		t.Fatalf("Children() returned %d nodes, want 2", len(children))
	}
	if children[0].Tag != "message" || children[1].Tag != "receipt" {
		t.Errorf("Children() tags = %q, %q", children[0].Tag, children[1].Tag)
	}

	if (&Node{Tag: "iq", Content: "text"}).Children() != nil {
		t.Error("Children() on scalar content should be nil")
	}
}

func TestEncodeNormalizesInt(t *testing.T) {
	n := &Node{
		Tag:     "receipt",
		Attrs:   []Attr{{Key: "count", Value: 7}},
		Content: 3,
	}

	data, err := Encode(n)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	v, ok := got.Attr("count")
	if !ok {
		t.Fatal("count attribute missing after round trip")
	}
	if v != int64(7) {
		t.Errorf("count = %v (%T), want int64(7)", v, v)
	}
	if got.Content != int64(3) {
		t.Errorf("Content = %v (%T), want int64(3)", got.Content, got.Content)
	}
}
