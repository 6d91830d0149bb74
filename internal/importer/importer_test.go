package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/philippgille/chromem-go"

	"github.com/liao/lyric-bot/internal/rag"
	"github.com/liao/lyric-bot/internal/rag/ragtest"
)

const sampleCSV = "Track_Name,ARTIST_NAME,genre,lyrics\n" +
	"Yellow Submarine,The Beatles,rock,\"we all live in a\nyellow submarine\"\n" +
	"Empty,Nobody,pop,\n" +
	"Blowin' in the Wind,Bob Dylan,folk,the answer my friend\n"

func TestParseCSV(t *testing.T) {
	tracks, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len = %d, want 2 (blank lyrics skipped)", len(tracks))
	}
	want := Track{Name: "Yellow Submarine", Artist: "The Beatles", Genre: "rock", Lyrics: "we all live in a\nyellow submarine"}
	if tracks[0] != want {
		t.Errorf("tracks[0] = %+v", tracks[0])
	}
}

func TestParseCSV_MissingColumns(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("artist,genre\nx,y\n")); err == nil {
		t.Error("expected error without track/lyrics columns")
	}
	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseJSONL(t *testing.T) {
	data := []byte(`{"track":"Bohemian Rhapsody","artist":"Queen","genre":"rock","lyrics":"is this the real life"}

not json
{"track":"Silent","artist":"x","lyrics":"   "}
{"track":"Wind","artist":"Bob Dylan","lyrics":"blowin"}
`)
	tracks, err := ParseJSONL(data)
	if err != nil {
		t.Fatalf("ParseJSONL: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len = %d, want 2", len(tracks))
	}
	if tracks[0].Artist != "Queen" || tracks[1].Name != "Wind" {
		t.Errorf("tracks = %+v", tracks)
	}
}

func TestParseHTML(t *testing.T) {
	page := `<html><body>
<div class="song">
  <h2 class="track">Yellow Submarine</h2>
  <span class="artist">The Beatles</span>
  <span class="genre">rock</span>
  <div class="lyrics">In the town where I was born<br>Lived a man who sailed to sea</div>
</div>
<article data-track="Wind"><p class="artist">Bob Dylan</p><div class="lyrics">how many roads</div></article>
<div class="song"><h2 class="track">No Lyrics</h2></div>
</body></html>`

	tracks, err := ParseHTML(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len = %d, want 2", len(tracks))
	}
	if tracks[0].Lyrics != "In the town where I was born\nLived a man who sailed to sea" {
		t.Errorf("lyrics = %q", tracks[0].Lyrics)
	}
	if tracks[1].Name != "Wind" || tracks[1].Artist != "Bob Dylan" {
		t.Errorf("tracks[1] = %+v", tracks[1])
	}
}

func TestTrackDocument(t *testing.T) {
	long := strings.Repeat("ü", MaxContentBytes) // 2 bytes per rune
	doc := Track{Name: "N", Artist: "A", Genre: "G", Lyrics: "x" + long}.Document(7)

	if doc.ID != "track_00007" {
		t.Errorf("ID = %q", doc.ID)
	}
	if len(doc.Content) > MaxContentBytes {
		t.Errorf("content is %d bytes", len(doc.Content))
	}
	if !utf8.ValidString(doc.Content) {
		t.Error("truncation split a rune")
	}
	if doc.Metadata["track"] != "N" || doc.Metadata["artist"] != "A" || doc.Metadata["genre"] != "G" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
}

func TestEncryptDecryptAndLoad(t *testing.T) {
	dir := t.TempDir()
	salt := []byte("0123456789abcdef")
	nonce := []byte("fedcba9876543210")

	enc, err := Encrypt([]byte(sampleCSV), "pw", salt, nonce)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	path := filepath.Join(dir, "lyrics.csv.enc")
	if err := os.WriteFile(path, enc, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, FormatAuto, ""); err == nil {
		t.Error("expected error without decrypt key")
	}
	if _, err := Load(path, FormatAuto, "wrong"); err == nil {
		t.Error("expected error with wrong key")
	}

	tracks, err := Load(path, FormatAuto, "pw")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tracks) != 2 || tracks[1].Artist != "Bob Dylan" {
		t.Errorf("tracks = %+v", tracks)
	}
}

func TestDecrypt_TooSmall(t *testing.T) {
	if _, err := Decrypt(make([]byte, 47), "pw"); err == nil {
		t.Error("expected error")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path, format string
		want         string
		enc          bool
	}{
		{"songs.csv", "auto", FormatCSV, false},
		{"songs.CSV.enc", "", FormatCSV, true},
		{"songs.jsonl", "auto", FormatJSONL, false},
		{"songs.enc", "auto", FormatJSONL, true},
		{"page.html", "auto", FormatHTML, false},
		{"data.txt", "csv", FormatCSV, false},
	}
	for _, tc := range tests {
		got, enc := DetectFormat(tc.path, tc.format)
		if got != tc.want || enc != tc.enc {
			t.Errorf("DetectFormat(%q, %q) = %q, %v; want %q, %v", tc.path, tc.format, got, enc, tc.want, tc.enc)
		}
	}
}

func sampleTracks(n int) []Track {
	songs := ragtest.Songs
	tracks := make([]Track, n)
	for i := range tracks {
		s := songs[i%len(songs)]
		tracks[i] = Track{Name: s.Track, Artist: s.Artist, Genre: s.Genre, Lyrics: s.Lyrics}
	}
	return tracks
}

func TestIndex_WritesBatchesAndRemovesCheckpoint(t *testing.T) {
	dir := t.TempDir()
	store, err := rag.CreateStore(dir, "lyrics", ragtest.Embed)
	if err != nil {
		t.Fatal(err)
	}

	added, err := Index(context.Background(), store, sampleTracks(45), IndexOptions{BatchSize: 20})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if added != 45 || store.Count() != 45 {
		t.Errorf("added = %d, count = %d, want 45", added, store.Count())
	}
	if _, err := os.Stat(filepath.Join(dir, ProgressFile)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("checkpoint not removed: %v", err)
	}

	reopened, err := rag.OpenStore(dir, "lyrics", ragtest.Embed)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if reopened.Count() != 45 {
		t.Errorf("reopened count = %d", reopened.Count())
	}
}

type failingWriter struct {
	dir     string
	batches int
	failAt  int
	ids     []string
}

func (w *failingWriter) AddDocuments(_ context.Context, docs []chromem.Document) error {
	w.batches++
	if w.batches == w.failAt {
		return errors.New("quota")
	}
	for _, d := range docs {
		w.ids = append(w.ids, d.ID)
	}
	return nil
}

func (w *failingWriter) Count() int  { return len(w.ids) }
func (w *failingWriter) Dir() string { return w.dir }

func TestIndex_ResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	tracks := sampleTracks(50)

	w := &failingWriter{dir: dir, failAt: 2}
	if _, err := Index(context.Background(), w, tracks, IndexOptions{BatchSize: 20}); err == nil {
		t.Fatal("expected failure on second batch")
	}
	data, err := os.ReadFile(filepath.Join(dir, ProgressFile))
	if err != nil || string(data) != "20" {
		t.Fatalf("checkpoint = %q, %v; want 20", data, err)
	}

	w2 := &failingWriter{dir: dir}
	added, err := Index(context.Background(), w2, tracks, IndexOptions{BatchSize: 20})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if added != 30 {
		t.Errorf("added = %d, want 30", added)
	}
	if w2.ids[0] != "track_00020" || w2.ids[len(w2.ids)-1] != "track_00049" {
		t.Errorf("resumed ids %s..%s", w2.ids[0], w2.ids[len(w2.ids)-1])
	}
}
