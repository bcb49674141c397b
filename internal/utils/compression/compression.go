package compression

import (
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Suffixes lists the compressed file extensions NewReader understands.
var Suffixes = []string{".gz", ".xz", ".zst", ".bz2"}

// TrimSuffix strips a known compression extension from name.
func TrimSuffix(name string) string {
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			return strings.TrimSuffix(name, s)
		}
	}
	return name
}

// NewReader wraps r with a decompressor chosen by the extension of name.
// Uncompressed input is returned as is.
func NewReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case strings.HasSuffix(name, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(xr), nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	case strings.HasSuffix(name, ".bz2"):
		return io.NopCloser(bzip2.NewReader(r)), nil
	}
	return io.NopCloser(r), nil
}

// Decompress writes the decompressed content of inFile to outFile.
func Decompress(inFile string, outFile string) error {
	in, err := os.Open(inFile)
	if err != nil {
		return fmt.Errorf("failed to open compressed file: %w", err)
	}
	defer in.Close()

	rc, err := NewReader(inFile, in)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create decompressed file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to decompress file: %w", err)
	}
	return nil
}
