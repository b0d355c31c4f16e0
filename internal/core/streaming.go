package core

// streaming.go turns an uploaded blob into the text the parser reads.
//
// Spreadsheet programs on Windows commonly produce:
//   - a UTF-8 byte order mark (0xEF 0xBB 0xBF) before the header
//   - CRLF or bare CR line endings
//   - Windows-1252 ("ANSI") text instead of UTF-8, which breaks accented
//     column names such as "Preço de Custo"
//
// DecodeText handles all three so header matching stays exact.

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// AcceptedExtension is the only file extension accepted for import.
const AcceptedExtension = ".csv"

// DefaultMaxFileSize bounds uploads when no explicit limit is configured.
const DefaultMaxFileSize int64 = 5 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrBinaryFile is returned for content that is clearly not text.
var ErrBinaryFile = errors.New("encoding error: file contains binary data")

// DecodeText strips a UTF-8 BOM, falls back to Windows-1252 when the data is
// not valid UTF-8, and normalizes line endings to "\n".
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrBinaryFile
	}

	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("encoding error: %w", err)
		}
		data = decoded
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// ValidateFile runs the checks of the uploading phase: extension, emptiness
// and size ceiling. All failures are reported together.
func ValidateFile(f File, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	size := f.Size
	if size <= 0 {
		size = int64(len(f.Data))
	}

	var reasons []string
	if ext := strings.ToLower(filepath.Ext(f.Name)); ext != AcceptedExtension {
		reasons = append(reasons, fmt.Sprintf("invalid file extension %q: only %s files are accepted", ext, AcceptedExtension))
	}
	if size == 0 {
		reasons = append(reasons, "empty file")
	}
	if size > maxSize {
		reasons = append(reasons, fmt.Sprintf("file too large: %s exceeds the %s limit", formatBytes(size), formatBytes(maxSize)))
	}

	if len(reasons) > 0 {
		return newPipelineError(PhaseUploading, KindFile, nil, reasons...)
	}
	return nil
}

// formatBytes renders a size for messages ("5.0 MB").
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
