package chatparse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"teamsync-backend/internal/shared/storage/object"
)

var (
	// ErrEmpty is returned when a transcript has no text after decoding.
	ErrEmpty = errors.New("transcript is empty")
	// ErrBinary is returned for content that is not text.
	ErrBinary = errors.New("transcript does not look like text")
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode turns an uploaded export into normalized UTF-8 text.
func Decode(raw []byte) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", ErrEmpty
	}

	text, err := decodeBytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	if strings.ContainsRune(text, 0) {
		return "", ErrBinary
	}

	text = normalize(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Load reads a stored transcript and decodes it.
func Load(ctx context.Context, store object.ObjectStore, key string, maxBytes int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load transcript key=%s: %w", key, err)
	}
	defer body.Close()

	var r io.Reader = body
	if maxBytes > 0 {
		r = io.LimitReader(body, maxBytes)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("load transcript key=%s: read: %w", key, err)
	}
	return Decode(raw)
}

func decodeBytes(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return transformString(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
	case bytes.HasPrefix(data, bomUTF16BE):
		return transformString(unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), data)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrBinary
	}
	return transformString(charmap.Windows1252.NewDecoder(), data)
}

func transformString(t transform.Transformer, data []byte) (string, error) {
	decoded, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
