// Package importer reads lyrics datasets and writes them into the on-disk
// index the chatbot serves from.
package importer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/philippgille/chromem-go"
)

// MaxContentBytes caps the lyrics stored per document.
const MaxContentBytes = 2000

// Track 一首歌
type Track struct {
	Name   string `json:"track"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
	Lyrics string `json:"lyrics"`
}

// Document converts the i-th track into an index document.
func (t Track) Document(i int) chromem.Document {
	return chromem.Document{
		ID:      fmt.Sprintf("track_%05d", i),
		Content: truncate(strings.TrimSpace(t.Lyrics), MaxContentBytes),
		Metadata: map[string]string{
			"track":  t.Name,
			"artist": t.Artist,
			"genre":  t.Genre,
		},
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func clean(tracks []Track) []Track {
	out := tracks[:0]
	for _, t := range tracks {
		t.Name = strings.TrimSpace(t.Name)
		t.Artist = strings.TrimSpace(t.Artist)
		t.Genre = strings.TrimSpace(t.Genre)
		if strings.TrimSpace(t.Lyrics) == "" {
			continue // 没有歌词的条目跳过
		}
		out = append(out, t)
	}
	return out
}
