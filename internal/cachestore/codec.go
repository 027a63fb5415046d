package cachestore

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"appshelf/internal/catalog"
)

// Format selects the on-disk encoding.
type Format int

const (
	FormatCompact Format = iota
	FormatDebug
)

// ParseFormat maps the config value onto a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "compact":
		return FormatCompact, nil
	case "debug":
		return FormatDebug, nil
	default:
		return FormatCompact, fmt.Errorf("unknown cache format %q", value)
	}
}

func (f Format) String() string {
	if f == FormatDebug {
		return "debug"
	}
	return "compact"
}

// FileName returns the cache file name used by the format.
func (f Format) FileName() string {
	if f == FormatDebug {
		return "cache.json"
	}
	return "cache.bin"
}

// Sorted map keys keep the compact output byte-stable for equal contents.
var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cachestore: cbor enc mode: %v", err))
	}
	return mode
}()

func encode(format Format, entries map[uint64]catalog.Record) ([]byte, error) {
	if format == FormatDebug {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return data, nil
	}

	raw, err := cborEncMode.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal cbor: %w", err)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(format Format, data []byte) (map[uint64]catalog.Record, error) {
	entries := make(map[uint64]catalog.Record)
	if format == FormatDebug {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("unmarshal json: %w", err)
		}
		return entries, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if err := cbor.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal cbor: %w", err)
	}
	return entries, nil
}
