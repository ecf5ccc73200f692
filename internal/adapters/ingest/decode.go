package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/okian/sailwind/internal/domain/model"
)

var (
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// decompress inflates gzip or zstd content, detected by magic bytes, and
// strips the matching extension from name. Other content is returned as is.
func decompress(name string, b []byte, limit int64) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(b, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, name, fmt.Errorf("%w: gzip: %v", ErrDecode, err)
		}
		defer r.Close()
		out, err := readLimited(r, limit)
		if err != nil {
			return nil, name, fmt.Errorf("%w: gzip: %v", ErrDecode, err)
		}
		return out, trimExt(name, ".gz"), nil
	case bytes.HasPrefix(b, zstdMagic):
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(uint64(limit)))
		if err != nil {
			return nil, name, fmt.Errorf("%w: zstd: %v", ErrDecode, err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(b, nil)
		if err != nil {
			return nil, name, fmt.Errorf("%w: zstd: %v", ErrDecode, err)
		}
		return out, trimExt(name, ".zst"), nil
	default:
		return b, name, nil
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("inflated content exceeds %d bytes", limit)
	}
	return out, nil
}

// FormatOf infers a track format from a file name, looking through a
// trailing .gz or .zst suffix. Names without an extension map to "unknown",
// which ParseFile rejects as not supported.
func FormatOf(name string) model.Format {
	name = trimExt(trimExt(name, ".gz"), ".zst")
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "unknown"
	}
	return model.Format(ext)
}

func trimExt(name, ext string) string {
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name[:len(name)-len(ext)]
	}
	return name
}

// decodeText turns delimited-text bytes into a string: UTF-8 (BOM stripped),
// then Shift-JIS, then ISO-8859-1, which accepts any byte sequence.
func decodeText(b []byte) (string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b), nil
	}
	if s, err := decodeWith(japanese.ShiftJIS.NewDecoder(), b); err == nil && !strings.ContainsRune(s, utf8.RuneError) {
		return s, nil
	}
	s, err := decodeWith(charmap.ISO8859_1.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return s, nil
}

func decodeWith(d *encoding.Decoder, b []byte) (string, error) {
	out, _, err := transform.Bytes(d, b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// charsetReader resolves XML encoding declarations through the IANA index.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("%w: charset %q: %v", ErrDecode, label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: charset %q unsupported", ErrDecode, label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
