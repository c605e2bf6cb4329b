// Package artifact serializes definition stores to durable cache files.
//
// The on-disk format is selected by file extension: ".json" produces a
// structured-text artifact, anything else a CBOR binary one. Artifacts are
// written atomically, so a cache file is either fully materialized or absent.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/rcsb/chemdict/cif"
)

// Format identifies the serialization of a cache artifact.
type Format uint8

const (
	// FormatBinary is CBOR, the default for any non-".json" extension.
	FormatBinary Format = iota
	// FormatJSON is structured text, selected by a ".json" extension.
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "binary"
}

const dirPerm = 0o700

// Path returns the artifact location for a cache directory, file prefix and
// extension: <dir>/<prefix>-data.<ext>.
func Path(dir, prefix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-data.%s", prefix, ext))
}

// FormatForPath infers the artifact format from the path's extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatBinary
}

// Exists reports whether a fully materialized artifact is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Encode writes the store to path in the format implied by its extension.
//
// Content is staged in a temp file and renamed into place; a failed write
// never leaves a partial artifact at the final path.
func Encode(path string, store map[string]*cif.Block) error {
	var (
		data []byte
		err  error
	)
	switch FormatForPath(path) {
	case FormatJSON:
		data, err = json.Marshal(store)
	default:
		data, err = cbor.Marshal(store)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, "artifact-*")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// Decode reads a store from the artifact at path.
func Decode(path string) (map[string]*cif.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	store := make(map[string]*cif.Block)
	switch FormatForPath(path) {
	case FormatJSON:
		err = json.Unmarshal(data, &store)
	default:
		err = cbor.Unmarshal(data, &store)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return store, nil
}
