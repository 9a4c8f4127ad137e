package checker

import (
	"fmt"
	"os"

	"github.com/user/leekcheck/internal/keyfile"
)

// Source supplies one armored key together with the address it claims.
type Source interface {
	Name() string
	Claimed() string
	Read() ([]byte, error)
}

type FileSource struct {
	Path string
}

func (f FileSource) Name() string {
	return f.Path
}

func (f FileSource) Claimed() string {
	return keyfile.ClaimedAddress(f.Path)
}

func (f FileSource) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return data, nil
}

// MemorySource is a key received from somewhere other than the file system.
// An empty ClaimedAddress falls back to the claim encoded in SourceName.
type MemorySource struct {
	SourceName     string
	ClaimedAddress string
	Data           []byte
}

func (m MemorySource) Name() string {
	return m.SourceName
}

func (m MemorySource) Claimed() string {
	if m.ClaimedAddress != "" {
		return m.ClaimedAddress
	}
	return keyfile.ClaimedAddress(m.SourceName)
}

func (m MemorySource) Read() ([]byte, error) {
	return m.Data, nil
}

func FileSources(paths []string) []Source {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, FileSource{Path: p})
	}
	return sources
}
