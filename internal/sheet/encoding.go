package sheet

// encoding.go cleans CSV bytes before encoding/csv sees them:
//
//   - skipBOM drops the UTF-8 byte order mark Excel puts on "CSV UTF-8" files
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming,
//     holding back a multi-byte rune split across reads
//
// Use cleanCSV to apply both in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer rewrites invalid UTF-8 bytes to '?'. The replacement is a
// single byte, so output never grows past input.
type utf8Sanitizer struct {
	r       io.Reader
	buf     []byte
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if cap(s.buf) < len(p) {
		s.buf = make([]byte, len(p))
	}
	buf := s.buf[:len(p)]

	off := copy(buf, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(buf[off:])
	data := buf[:off+n]

	if err == nil {
		if tail := incompleteTail(data); tail > 0 {
			s.pending = append(s.pending, data[len(data)-tail:]...)
			data = data[:len(data)-tail]
		}
	}

	if utf8.Valid(data) {
		return copy(p, data), err
	}

	w := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			p[w] = '?'
			w++
			i++
			continue
		}
		w += copy(p[w:], data[i:i+size])
		i += size
	}
	return w, err
}

// incompleteTail returns how many trailing bytes of data begin a rune whose
// remaining bytes have not been read yet.
func incompleteTail(data []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < 0x80 {
			return 0
		}
		if b >= 0xC0 {
			if runeLen(b) > i {
				return i
			}
			return 0
		}
	}
	return 0
}

// runeLen is the encoded length announced by a UTF-8 leading byte.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// cleanCSV strips the BOM first, then sanitizes what follows.
func cleanCSV(r io.Reader) io.Reader {
	return newUTF8Sanitizer(skipBOM(r))
}
