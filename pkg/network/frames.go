package network

import (
	"bytes"
	"fmt"
)

// KeepAliveProbe is the short literal payload sent on every keep-alive
// interval, distinct from the transport-level ping.
const KeepAliveProbe = "?,,"

// Binary frame metric/flag bytes. The metric byte classifies the frame
// for server-side accounting; flags modify routing.
const (
	MetricMessage byte = 0x10
	MetricQuery   byte = 0x18

	FlagNone        byte = 0x00
	FlagIgnore      byte = 0x80
	FlagAcknowledge byte = 0x40
)

// SplitFrame splits a frame into its leading tag and the body after the
// first comma. Frames without a comma are returned as body-only.
func SplitFrame(data []byte) (tag string, body []byte) {
	i := bytes.IndexByte(data, ',')
	if i < 0 {
		return "", data
	}
	return string(data[:i]), data[i+1:]
}

// BuildTextFrame joins a tag and a JSON body into a control frame.
func BuildTextFrame(tag string, body []byte) []byte {
	out := make([]byte, 0, len(tag)+1+len(body))
	out = append(out, tag...)
	out = append(out, ',')
	return append(out, body...)
}

// BuildBinaryFrame lays out an encrypted frame:
// tag + "," + metric + flags + blob.
func BuildBinaryFrame(tag string, metric, flags byte, blob []byte) []byte {
	out := make([]byte, 0, len(tag)+3+len(blob))
	out = append(out, tag...)
	out = append(out, ',', metric, flags)
	return append(out, blob...)
}

// ParseBinaryFrame splits an inbound binary frame into tag, metric,
// flags, and the encrypted blob.
func ParseBinaryFrame(data []byte) (tag string, metric, flags byte, blob []byte, err error) {
	t, rest := SplitFrame(data)
	if t == "" {
		return "", 0, 0, nil, fmt.Errorf("binary frame missing tag")
	}
	if len(rest) < 2 {
		return "", 0, 0, nil, fmt.Errorf("binary frame truncated after tag")
	}
	return t, rest[0], rest[1], rest[2:], nil
}
