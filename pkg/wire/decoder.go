package wire

// Decode parses a single encoded node and requires the buffer to contain
// nothing else. A truncated or malformed buffer yields a *CodecError.
func Decode(data []byte) (*Node, error) {
	d := &decoder{buf: data}

	marker, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if marker != markerNode {
		return nil, codecErrorf(d.pos-1, "expected node marker, got 0x%02X", marker)
	}

	n, err := d.readNode()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, codecErrorf(d.pos, "trailing data (%d bytes)", len(d.buf)-d.pos)
	}
	return n, nil
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, codecErrorf(d.pos, "unexpected end of buffer")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readN(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, codecErrorf(d.pos, "need %d bytes, have %d", n, len(d.buf)-d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) readLen20() (int, error) {
	b, err := d.readN(3)
	if err != nil {
		return 0, err
	}
	return int(b[0]&0x0F)<<16 | int(b[1])<<8 | int(b[2]), nil
}

// readValue decodes the next value, whatever its marker.
func (d *decoder) readValue() (any, error) {
	marker, err := d.readByte()
	if err != nil {
		return nil, err
	}
	return d.readValueAfter(marker)
}

func (d *decoder) readValueAfter(marker byte) (any, error) {
	switch marker {
	case markerAbsent:
		return nil, nil
	case markerToken, markerString8, markerString20:
		return d.readStringAfter(marker)
	case markerBytes20:
		length, err := d.readLen20()
		if err != nil {
			return nil, err
		}
		b, err := d.readN(length)
		if err != nil {
			return nil, err
		}
		out := make([]byte, length)
		copy(out, b)
		return out, nil
	case markerInt8:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return int64(b), nil
	case markerArray8:
		return d.readArray()
	case markerNode:
		return d.readNode()
	default:
		return nil, codecErrorf(d.pos-1, "unknown marker 0x%02X", marker)
	}
}

func (d *decoder) readString() (string, error) {
	marker, err := d.readByte()
	if err != nil {
		return "", err
	}
	return d.readStringAfter(marker)
}

func (d *decoder) readStringAfter(marker byte) (string, error) {
	switch marker {
	case markerToken:
		idx, err := d.readByte()
		if err != nil {
			return "", err
		}
		s, ok := tokenString(idx)
		if !ok {
			return "", codecErrorf(d.pos-1, "invalid token index %d", idx)
		}
		return s, nil
	case markerString8:
		length, err := d.readByte()
		if err != nil {
			return "", err
		}
		b, err := d.readN(int(length))
		if err != nil {
			return "", err
		}
		return string(b), nil
	case markerString20:
		length, err := d.readLen20()
		if err != nil {
			return "", err
		}
		b, err := d.readN(length)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", codecErrorf(d.pos-1, "expected string, got marker 0x%02X", marker)
	}
}

func (d *decoder) readArray() ([]any, error) {
	count, err := d.readByte()
	if err != nil {
		return nil, err
	}
	arr := make([]any, 0, count)
	for i := 0; i < int(count); i++ {
		el, err := d.readValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, el)
	}
	return arr, nil
}

// readNode decodes a node body; the node marker has already been consumed.
func (d *decoder) readNode() (*Node, error) {
	n := &Node{}

	// Tag: absent or a string form
	marker, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if marker != markerAbsent {
		tag, err := d.readStringAfter(marker)
		if err != nil {
			return nil, err
		}
		n.Tag = tag
	}

	// Attributes
	count, err := d.readByte()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(count); i++ {
		key, err := d.readString()
		if err != nil {
			return nil, err
		}
		val, err := d.readValue()
		if err != nil {
			return nil, err
		}
		n.Attrs = append(n.Attrs, Attr{Key: key, Value: val})
	}

	// Content
	content, err := d.readValue()
	if err != nil {
		return nil, err
	}
	n.Content = content

	return n, nil
}
