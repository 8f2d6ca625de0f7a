package codec

import pr "github.com/unkn0wn-root/routedcache/provider"

// Bytes passes byte slices through unchanged.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores Go strings as their UTF-8 bytes, without validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

// Counter reads and writes values in the decimal ASCII form used by
// Provider.Incr and Provider.Decr.
type Counter struct{}

func (Counter) Encode(n int64) ([]byte, error) { return pr.FormatCounter(n), nil }
func (Counter) Decode(b []byte) (int64, error) { return pr.ParseCounter(b) }
