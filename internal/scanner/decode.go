package scanner

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/types"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// magicNumbers are signatures of common binary formats that may not contain a NUL
// byte early enough to be caught by the NUL check. Signatures made only of printable
// ASCII are left out so text files starting with them are still searched.
var magicNumbers = []struct {
	prefix []byte
	name   string
}{
	{[]byte{0x1F, 0x8B}, "gzip"},
	{[]byte{0x50, 0x4B, 0x03, 0x04}, "zip"},
	{[]byte{0x50, 0x4B, 0x05, 0x06}, "zip"},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg"},
	{[]byte{0x7F, 0x45, 0x4C, 0x46}, "elf"},
	{[]byte{0xCA, 0xFE, 0xBA, 0xBE}, "mach-o"},
}

// decodeText returns the UTF-8 text of a file's content.
// UTF-16 with a BOM is transcoded and a UTF-8 BOM is stripped. Content with a NUL
// byte in the first BinaryPreCheckBytes, a known binary signature, or invalid UTF-8
// is rejected with an error wrapping errors.ErrBinary.
func decodeText(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return nil, fmt.Errorf("%w: utf-16: %v", errors.ErrBinary, err)
		}
		return out, nil
	}

	if kind := binaryKind(data); kind != "" {
		return nil, fmt.Errorf("%w: %s", errors.ErrBinary, kind)
	}

	data = bytes.TrimPrefix(data, bomUTF8)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid utf-8", errors.ErrBinary)
	}
	return data, nil
}

// binaryKind names the reason data looks binary, or returns ""
func binaryKind(data []byte) string {
	sample := data
	if len(sample) > types.BinaryPreCheckBytes {
		sample = sample[:types.BinaryPreCheckBytes]
	}

	for _, magic := range magicNumbers {
		if bytes.HasPrefix(sample, magic.prefix) {
			return magic.name
		}
	}

	if bytes.IndexByte(sample, 0) >= 0 {
		return "NUL byte"
	}
	return ""
}
