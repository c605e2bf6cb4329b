package cif

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ReadFile parses every data block from the file at path.
//
// Compression is inferred from the file name: ".gz" and ".zst" suffixes are
// decompressed transparently, matching how the wwPDB archives are published.
func ReadFile(path string) ([]*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cif: open %s: %w", path, err)
	}
	defer f.Close()

	r, closer, err := decompress(f, path)
	if err != nil {
		return nil, fmt.Errorf("cif: decompress %s: %w", path, err)
	}
	defer closer()

	blocks, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("cif: parse %s: %w", path, err)
	}
	return blocks, nil
}

func decompress(f *os.File, path string) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	default:
		return f, func() {}, nil
	}
}
