package codec

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type session struct {
	User    string    `json:"user" msgpack:"user" cbor:"user"`
	Roles   []string  `json:"roles" msgpack:"roles" cbor:"roles"`
	Expires time.Time `json:"expires" msgpack:"expires" cbor:"expires"`
}

func sample() session {
	return session{User: "ana", Roles: []string{"admin"}, Expires: time.Date(2030, 1, 2, 3, 4, 5, 6, time.UTC)}
}

func roundTrip[V any](t *testing.T, name string, c Codec[V], v V, eq func(a, b V) bool) {
	t.Helper()
	b, err := c.Encode(v)
	if err != nil {
		t.Fatalf("%s encode: %v", name, err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("%s decode: %v", name, err)
	}
	if !eq(v, got) {
		t.Fatalf("%s: got %+v want %+v", name, got, v)
	}
}

func sameSession(a, b session) bool {
	return a.User == b.User && len(a.Roles) == len(b.Roles) && a.Roles[0] == b.Roles[0] && a.Expires.Equal(b.Expires)
}

func TestStructCodecs(t *testing.T) {
	roundTrip[session](t, "json", JSON[session]{}, sample(), sameSession)
	roundTrip[session](t, "msgpack", Msgpack[session]{}, sample(), sameSession)
	roundTrip[session](t, "cbor", MustCBOR[session](false), sample(), sameSession)
	roundTrip[session](t, "cbor-det", MustCBOR[session](true), sample(), sameSession)
}

func TestCBORDeterministic(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, _ := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	b, _ := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	if string(a) != string(b) {
		t.Fatalf("deterministic encoding differs: %x vs %x", a, b)
	}
}

func TestRawCodecs(t *testing.T) {
	roundTrip[[]byte](t, "bytes", Bytes{}, []byte{0, 1, 2}, func(a, b []byte) bool { return string(a) == string(b) })
	roundTrip[string](t, "string", String{}, "héllo", func(a, b string) bool { return a == b })
	roundTrip[int64](t, "counter", Counter{}, -42, func(a, b int64) bool { return a == b })

	b, _ := Counter{}.Encode(17)
	if string(b) != "17" {
		t.Fatalf("counter encoding: got %q", b)
	}
	if n, err := (Counter{}).Decode(nil); err != nil || n != 0 {
		t.Fatalf("counter decode nil: %d, %v", n, err)
	}
	if _, err := (Counter{}).Decode([]byte("x")); err == nil {
		t.Fatalf("counter decode of non-integer should fail")
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("sess:42"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.GetValue() != "sess:42" {
		t.Fatalf("got %q", got.GetValue())
	}

	var zero Protobuf[*wrapperspb.StringValue]
	if _, err := zero.Decode(b); !errors.Is(err, ErrNoConstructor) {
		t.Fatalf("expected ErrNoConstructor, got %v", err)
	}
}

func TestLimitCodec(t *testing.T) {
	c := LimitCodec[string]{Inner: String{}, MaxEncode: 4, MaxDecode: 3}

	if _, err := c.Encode("abcde"); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("encode: expected ErrPayloadTooLarge, got %v", err)
	}
	if b, err := c.Encode("abcd"); err != nil || string(b) != "abcd" {
		t.Fatalf("encode within limit: %q, %v", b, err)
	}
	if _, err := c.Decode([]byte("abcd")); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("decode: expected ErrPayloadTooLarge, got %v", err)
	}
	if s, err := c.Decode([]byte("abc")); err != nil || s != "abc" {
		t.Fatalf("decode within limit: %q, %v", s, err)
	}

	unbounded := LimitCodec[string]{Inner: String{}}
	if _, err := unbounded.Decode(make([]byte, 1<<16)); err != nil {
		t.Fatalf("zero limit must disable the check: %v", err)
	}
}
