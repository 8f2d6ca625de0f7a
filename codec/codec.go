// Package codec converts typed values to the opaque bytes stored by
// providers. Codecs are used by routedcache.Typed; the router itself only
// moves bytes.
package codec

import "errors"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

var (
	// ErrPayloadTooLarge is returned by LimitCodec when a payload exceeds
	// its bound.
	ErrPayloadTooLarge = errors.New("codec: payload too large")

	// ErrNoConstructor is returned by a Protobuf codec built without a
	// message constructor.
	ErrNoConstructor = errors.New("codec: protobuf constructor is nil")
)
