package wire

import (
	"bytes"
	"fmt"
)

// Encode serializes a node to its binary form.
func Encode(n *Node) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("wire: cannot encode nil node")
	}

	var buf bytes.Buffer
	if err := encodeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(buf *bytes.Buffer, n *Node) error {
	buf.WriteByte(markerNode)

	// Tag
	if n.Tag == "" {
		buf.WriteByte(markerAbsent)
	} else if err := encodeString(buf, n.Tag); err != nil {
		return err
	}

	// Attributes
	if len(n.Attrs) > 255 {
		return fmt.Errorf("wire: too many attributes (%d)", len(n.Attrs))
	}
	buf.WriteByte(byte(len(n.Attrs)))
	for _, a := range n.Attrs {
		if err := encodeString(buf, a.Key); err != nil {
			return err
		}
		if err := encodeValue(buf, a.Value); err != nil {
			return err
		}
	}

	// Content
	return encodeValue(buf, n.Content)
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteByte(markerAbsent)
		return nil
	case string:
		return encodeString(buf, val)
	case int64:
		return encodeInt(buf, val)
	case int:
		// Normalized to int64; Decode always yields int64.
		return encodeInt(buf, int64(val))
	case []byte:
		return encodeBytes(buf, val)
	case []any:
		return encodeArray(buf, val)
	case *Node:
		if val == nil {
			buf.WriteByte(markerAbsent)
			return nil
		}
		return encodeNode(buf, val)
	default:
		return fmt.Errorf("wire: unsupported value type %T", v)
	}
}

func encodeString(buf *bytes.Buffer, s string) error {
	if idx, ok := lookupToken(s); ok {
		buf.WriteByte(markerToken)
		buf.WriteByte(idx)
		return nil
	}

	switch {
	case len(s) < 256:
		buf.WriteByte(markerString8)
		buf.WriteByte(byte(len(s)))
	case len(s) <= maxLen20:
		buf.WriteByte(markerString20)
		writeLen20(buf, len(s))
	default:
		return fmt.Errorf("wire: string too long (%d bytes)", len(s))
	}
	buf.WriteString(s)
	return nil
}

func encodeBytes(buf *bytes.Buffer, b []byte) error {
	if len(b) > maxLen20 {
		return fmt.Errorf("wire: byte string too long (%d bytes)", len(b))
	}
	buf.WriteByte(markerBytes20)
	writeLen20(buf, len(b))
	buf.Write(b)
	return nil
}

func encodeInt(buf *bytes.Buffer, v int64) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("wire: integer %d out of single-byte range", v)
	}
	buf.WriteByte(markerInt8)
	buf.WriteByte(byte(v))
	return nil
}

func encodeArray(buf *bytes.Buffer, arr []any) error {
	if len(arr) > 255 {
		return fmt.Errorf("wire: array too long (%d elements)", len(arr))
	}
	buf.WriteByte(markerArray8)
	buf.WriteByte(byte(len(arr)))
	for _, el := range arr {
		if err := encodeValue(buf, el); err != nil {
			return err
		}
	}
	return nil
}

func writeLen20(buf *bytes.Buffer, n int) {
	buf.WriteByte(byte(n >> 16 & 0x0F))
	buf.WriteByte(byte(n >> 8))
	buf.WriteByte(byte(n))
}
