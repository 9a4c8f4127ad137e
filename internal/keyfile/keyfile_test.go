package keyfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureName = "kwke2hntvyfqm7dr.onion.key"

func readFixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", fixtureName))
	require.NoError(t, err)
	return string(raw)
}

func TestDecodeFixture(t *testing.T) {
	der, err := Decode([]byte(readFixture(t)))
	require.NoError(t, err)

	assert.Len(t, der, 610)
	assert.Equal(t, []byte{0x30, 0x82, 0x02, 0x5e}, der[:4])
}

func TestDecodeLineEndings(t *testing.T) {
	fixture := readFixture(t)
	expected, err := Decode([]byte(fixture))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(fixture), "\n")
	header, footer := lines[0], lines[len(lines)-1]
	body := strings.Join(lines[1:len(lines)-1], "")

	variants := map[string]string{
		"crlf":             strings.ReplaceAll(fixture, "\n", "\r\n"),
		"no final newline": strings.TrimRight(fixture, "\n"),
		"extra newlines":   fixture + "\n\n",
		"single body line": header + "\n" + body + "\n" + footer + "\n",
		"narrow wrap":      header + "\n" + wrap(body, 16) + footer + "\n",
	}

	for name, text := range variants {
		t.Run(name, func(t *testing.T) {
			der, err := Decode([]byte(text))
			require.NoError(t, err)
			assert.Equal(t, expected, der)
		})
	}
}

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	b.WriteByte('\n')
	return b.String()
}

func TestDecodeRejectsMalformedArmor(t *testing.T) {
	fixture := readFixture(t)
	lines := strings.Split(strings.TrimSpace(fixture), "\n")

	replaceLine := func(i int, s string) string {
		out := append([]string(nil), lines...)
		out[i] = s
		return strings.Join(out, "\n") + "\n"
	}

	tests := map[string]string{
		"empty":            "",
		"body only":        lines[1] + "\n",
		"missing footer":   strings.Join(lines[:len(lines)-1], "\n") + "\n",
		"missing header":   strings.Join(lines[1:], "\n") + "\n",
		"space in body":    replaceLine(2, lines[2][:10]+" "+lines[2][10:]),
		"tab in body":      replaceLine(2, "\t"+lines[2]),
		"stray character":  replaceLine(3, lines[3][:5]+"*"+lines[3][6:]),
		"pem header":       lines[0] + "\nProc-Type: 4,ENCRYPTED\n" + strings.Join(lines[1:], "\n") + "\n",
		"blank body line":  replaceLine(4, ""),
		"truncated base64": replaceLine(len(lines)-2, lines[len(lines)-2][:5]),
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(text))
			assert.ErrorIs(t, err, ErrMalformedArmor)
		})
	}
}

func TestClaimedAddress(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"kwke2hntvyfqm7dr.onion.key", "kwke2hntvyfqm7dr"},
		{"/var/lib/leek/results/abcdefghijklmnop.onion.key", "abcdefghijklmnop"},
		{"relative/dir.with.dots/name.key", "name"},
		{"noextension", "noextension"},
		{".hidden", ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, ClaimedAddress(test.path), "path %q", test.path)
	}
}

func TestRead(t *testing.T) {
	claimed, der, err := Read(filepath.Join("testdata", fixtureName))
	require.NoError(t, err)
	assert.Equal(t, "kwke2hntvyfqm7dr", claimed)

	expected, err := Decode([]byte(readFixture(t)))
	require.NoError(t, err)
	assert.Equal(t, expected, der)

	_, _, err = Read(filepath.Join(t.TempDir(), "missing.onion.key"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
