// Package keyfile reads the PEM-armored key files written by leek.
//
// Only the armor lines are stripped. The body must be plain base64, wrapped
// over any number of lines; spaces, tabs, PEM headers and other stray
// characters are rejected.
package keyfile

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultSuffix is the suffix of key files written by leek.
	DefaultSuffix = ".onion.key"

	beginMarker = "-----BEGIN "
	endMarker   = "-----END "
	armorTail   = "-----"
)

var ErrMalformedArmor = errors.New("keyfile: malformed armor")

// Decode strips the armor lines from text and returns the DER bytes of the
// body.
func Decode(text []byte) ([]byte, error) {
	lines := splitLines(text)
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: want header, body and footer lines, got %d lines", ErrMalformedArmor, len(lines))
	}

	header, footer := lines[0], lines[len(lines)-1]
	if !isArmorLine(header, beginMarker) {
		return nil, fmt.Errorf("%w: first line is not a BEGIN line", ErrMalformedArmor)
	}
	if !isArmorLine(footer, endMarker) {
		return nil, fmt.Errorf("%w: last line is not an END line", ErrMalformedArmor)
	}

	var body bytes.Buffer
	for i, line := range lines[1 : len(lines)-1] {
		if len(line) == 0 {
			return nil, fmt.Errorf("%w: empty body line %d", ErrMalformedArmor, i+2)
		}
		body.Write(line)
	}

	out := make([]byte, base64.StdEncoding.DecodedLen(body.Len()))
	n, err := base64.StdEncoding.Strict().Decode(out, body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArmor, err)
	}
	return out[:n], nil
}

// splitLines splits on LF, drops a CR before each LF and ignores trailing
// empty lines.
func splitLines(text []byte) [][]byte {
	text = bytes.TrimRight(text, "\r\n")
	if len(text) == 0 {
		return nil
	}
	lines := bytes.Split(text, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimSuffix(line, []byte("\r"))
	}
	return lines
}

func isArmorLine(line []byte, marker string) bool {
	s := string(line)
	return strings.HasPrefix(s, marker) && strings.HasSuffix(s, armorTail) && len(s) > len(marker)+len(armorTail)
}

// ClaimedAddress returns the file name of path up to its first dot.
func ClaimedAddress(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Read loads a key file and returns the address claimed by its name together
// with the DER bytes of the key.
func Read(path string) (claimed string, der []byte, err error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read key file: %w", err)
	}

	der, err = Decode(text)
	if err != nil {
		return "", nil, err
	}
	return ClaimedAddress(path), der, nil
}
