package transcoder

import (
	"encoding/binary"
	"reflect"

	"github.com/wippyai/plod/wire"
)

// Custom is implemented, on the pointer receiver, by Go types that encode
// themselves. The reader and writer carry the stream position; State carries
// the context and the byte order resolved for the field.
//
// EncodedSize must equal the number of bytes EncodeTo writes.
type Custom interface {
	EncodedSize() int
	EncodeTo(w *wire.Writer, st *State) error
	DecodeFrom(r *wire.Reader, st *State) error
}

// State is the ambient state handed to custom codecs.
type State struct {
	Context any
	Order   binary.ByteOrder
}

var customType = reflect.TypeOf((*Custom)(nil)).Elem()

func asCustom(v reflect.Value) Custom {
	return v.Addr().Interface().(Custom)
}
