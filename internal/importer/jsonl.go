package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// ParseJSONL 解析 JSONL 格式，每行一首歌
// Malformed lines are logged and skipped.
func ParseJSONL(data []byte) ([]Track, error) {
	var tracks []Track

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var t Track
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			slog.Warn("skip malformed jsonl line", "line", lineNum, "error", err)
			continue
		}
		tracks = append(tracks, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}
	return clean(tracks), nil
}
