// Package wire implements the Veltalk binary node format.
//
// The unit of the format is the Node: a tagged tree with an ordered
// attribute list and an optional content value. Nodes are what travel
// inside every encrypted application frame; the plaintext of a decrypted
// frame is exactly one encoded Node.
//
// # Wire Format
//
// Every value starts with a one-byte marker:
//   - Absent (0x00): missing tag or content
//   - Token (0x01): index into a fixed dictionary of common protocol strings
//   - String8 (0x02): 1-byte length followed by UTF-8 bytes
//   - String20 (0x03): 3-byte (20-bit) big-endian length followed by bytes
//   - Bytes20 (0x04): 3-byte (20-bit) length followed by a raw byte string
//   - Int8 (0x05): a single-byte non-negative integer (0..255)
//   - Array8 (0x06): 1-byte element count followed by encoded elements
//   - NodeMarker (0x07): an encoded Node
//
// A Node is encoded as its tag (token, string, or Absent), a 1-byte
// attribute count, each attribute as an encoded key/value pair, and
// finally its encoded content.
//
// # Round Trip
//
// For every representable Node n, Decode(Encode(n)) returns a Node equal
// to n, and Decode never reads past the end of a truncated buffer: it
// returns a *CodecError instead. The codec is pure; it performs no I/O
// and holds no shared state.
package wire
