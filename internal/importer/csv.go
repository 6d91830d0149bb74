package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var columnAliases = map[string][]string{
	"track":  {"track_name", "track", "title", "song"},
	"artist": {"artist_name", "artist"},
	"genre":  {"genre"},
	"lyrics": {"lyrics", "text"},
}

// ParseCSV reads a headed CSV. Column names are matched case-insensitively;
// track and lyrics columns are required.
func ParseCSV(r io.Reader) ([]Track, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := mapColumns(header)
	if _, ok := cols["track"]; !ok {
		return nil, fmt.Errorf("csv header %v: no track column", header)
	}
	if _, ok := cols["lyrics"]; !ok {
		return nil, fmt.Errorf("csv header %v: no lyrics column", header)
	}

	var tracks []Track
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		tracks = append(tracks, Track{
			Name:   field(rec, cols, "track"),
			Artist: field(rec, cols, "artist"),
			Genre:  field(rec, cols, "genre"),
			Lyrics: field(rec, cols, "lyrics"),
		})
	}
	return clean(tracks), nil
}

func mapColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for name, aliases := range columnAliases {
			if _, done := cols[name]; done {
				continue
			}
			for _, a := range aliases {
				if h == a {
					cols[name] = i
					break
				}
			}
		}
	}
	return cols
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}
