package packet

import (
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// wireCharset is the encoding used for S fields on the wire. UTF-8 unless
// configured otherwise (legacy clients speak Big5).
var wireCharset atomic.Pointer[encoding.Encoding]

func init() {
	var e encoding.Encoding = unicode.UTF8
	wireCharset.Store(&e)
}

// SetCharset selects the wire string encoding by its WHATWG name
// ("utf-8", "big5", "gbk", ...).
func SetCharset(name string) error {
	e, err := htmlindex.Get(name)
	if err != nil {
		return fmt.Errorf("charset %q: %w", name, err)
	}
	wireCharset.Store(&e)
	return nil
}

func charset() encoding.Encoding {
	return *wireCharset.Load()
}

// decodeString converts wire bytes to a UTF-8 string.
// Pure ASCII passes through unchanged.
func decodeString(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if isASCII(raw) {
		return string(raw)
	}
	decoded, err := charset().NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func encodeString(s string) []byte {
	if isASCII([]byte(s)) {
		return []byte(s)
	}
	encoded, err := charset().NewEncoder().Bytes([]byte(s))
	if err != nil {
		// characters Big5 cannot encode go out as raw UTF-8
		if utf8.ValidString(s) {
			return []byte(s)
		}
		return nil
	}
	return encoded
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
