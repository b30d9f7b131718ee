package wire

import "fmt"

// CodecError reports a malformed or truncated buffer during decoding.
// Offset is the byte position at which decoding failed.
type CodecError struct {
	Offset int
	Msg    string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("wire: %s at offset %d", e.Msg, e.Offset)
}

func codecErrorf(offset int, format string, args ...any) *CodecError {
	return &CodecError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
