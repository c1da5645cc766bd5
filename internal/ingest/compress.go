package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ZstdSuffix marks compressed exports.
const ZstdSuffix = ".zst"

// ReadFile reads an export, transparently decompressing .zst files.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ZstdSuffix) {
		return io.ReadAll(f)
	}
	return Decompress(f)
}

// Decompress reads a whole zstd stream.
func Decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return data, nil
}

// Compress encodes data as a single zstd frame.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes an export, compressing it when path ends in .zst.
func WriteFile(path string, data []byte) error {
	if strings.HasSuffix(path, ZstdSuffix) {
		var err error
		if data, err = Compress(data); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
