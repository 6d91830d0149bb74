// Package ragtest provides a deterministic embedding function and index
// builders for tests that need a real on-disk index without a remote model.
package ragtest

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"
	"unicode"

	"github.com/philippgille/chromem-go"
)

const Dimensions = 64

// Embed hashes lowercase words into a fixed-size bag-of-words vector. Texts
// sharing words land close together. Dimension 0 is a constant bias so no
// vector is ever zero.
func Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, Dimensions)
	v[0] = 0.1
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[1+int(h.Sum32()%(Dimensions-1))]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v, nil
}

// CountingEmbed wraps Embed and counts calls.
type CountingEmbed struct {
	Calls int
}

func (c *CountingEmbed) Embed(ctx context.Context, text string) ([]float32, error) {
	c.Calls++
	return Embed(ctx, text)
}

// Song is a document to seed an index with.
type Song struct {
	Track, Artist, Genre, Lyrics string
}

// BuildIndex writes songs into a persistent chromem-go collection under dir.
func BuildIndex(t testing.TB, dir, collection string, songs []Song) {
	t.Helper()
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		t.Fatalf("NewPersistentDB: %v", err)
	}
	col, err := db.GetOrCreateCollection(collection, nil, Embed)
	if err != nil {
		t.Fatalf("GetOrCreateCollection: %v", err)
	}
	docs := make([]chromem.Document, 0, len(songs))
	for i, s := range songs {
		docs = append(docs, chromem.Document{
			ID:      "track_" + string(rune('a'+i)),
			Content: s.Lyrics,
			Metadata: map[string]string{
				"track":  s.Track,
				"artist": s.Artist,
				"genre":  s.Genre,
			},
		})
	}
	if len(docs) == 0 {
		return
	}
	if err := col.AddDocuments(context.Background(), docs, 1); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
}

// Songs is a small fixture catalogue.
var Songs = []Song{
	{Track: "Yellow Submarine", Artist: "The Beatles", Genre: "rock", Lyrics: "we all live in a yellow submarine yellow submarine"},
	{Track: "Blowin' in the Wind", Artist: "Bob Dylan", Genre: "folk", Lyrics: "the answer my friend is blowin in the wind"},
	{Track: "Bohemian Rhapsody", Artist: "Queen", Genre: "rock", Lyrics: "is this the real life is this just fantasy caught in a landslide"},
}
