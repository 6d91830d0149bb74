package importer

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Formats accepted by Load.
const (
	FormatAuto  = "auto"
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
	FormatHTML  = "html"
)

// DetectFormat resolves FormatAuto from the file name. A trailing .enc is
// looked through: lyrics.csv.enc is CSV. Unknown extensions default to JSONL.
func DetectFormat(path, format string) (string, bool) {
	encrypted := strings.EqualFold(filepath.Ext(path), ".enc")
	if format != "" && format != FormatAuto {
		return format, encrypted
	}
	name := path
	if encrypted {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, encrypted
	case ".html", ".htm":
		return FormatHTML, encrypted
	default:
		return FormatJSONL, encrypted
	}
}

// Load reads and parses a dataset. decryptKey is required for .enc files.
func Load(path, format, decryptKey string) ([]Track, error) {
	format, encrypted := DetectFormat(path, format)

	var (
		data []byte
		err  error
	)
	if encrypted {
		if decryptKey == "" {
			return nil, fmt.Errorf("decrypt key required for %s", path)
		}
		data, err = DecryptFile(path, decryptKey)
		if err != nil {
			return nil, err
		}
		slog.Info("decrypted successfully", "bytes", len(data))
		// 清除内存中的明文
		defer func() {
			for i := range data {
				data[i] = 0
			}
		}()
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
	}

	var tracks []Track
	switch format {
	case FormatCSV:
		tracks, err = ParseCSV(bytes.NewReader(data))
	case FormatJSONL:
		tracks, err = ParseJSONL(data)
	case FormatHTML:
		tracks, err = ParseHTML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("parsed dataset", "file", path, "format", format, "tracks", len(tracks))
	return tracks, nil
}
