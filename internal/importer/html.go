package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML reads a lyrics page export: one element with class "song" per
// track holding .track, .artist, .genre and .lyrics children.
func ParseHTML(r io.Reader) ([]Track, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var tracks []Track
	doc.Find(".song, article[data-track]").Each(func(_ int, s *goquery.Selection) {
		name := text(s, ".track, .title")
		if name == "" {
			name, _ = s.Attr("data-track")
		}
		tracks = append(tracks, Track{
			Name:   name,
			Artist: text(s, ".artist"),
			Genre:  text(s, ".genre"),
			Lyrics: lyrics(s.Find(".lyrics").First()),
		})
	})
	return clean(tracks), nil
}

func text(s *goquery.Selection, sel string) string {
	return strings.TrimSpace(s.Find(sel).First().Text())
}

// lyrics keeps line breaks given as <br> or block children.
func lyrics(s *goquery.Selection) string {
	s.Find("br").ReplaceWithHtml("\n")
	lines := strings.Split(s.Text(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
