package trace

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errUnsupportedEncoding = errors.New("trace: unsupported encoding")

// decodeInput wraps r so the scanner always sees UTF-8. Traces captured by
// Windows-hosted tooling often arrive as UTF-16LE with a BOM or as
// Windows-1252.
func decodeInput(r io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		// Honors a BOM when present, otherwise passes bytes through.
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "utf-16le", "utf16le":
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case "windows-1252", "latin1":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, errUnsupportedEncoding
	}
}
