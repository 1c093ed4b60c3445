package ingest

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestChunk_Blank(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		if got := Chunk(text, 100, 10); got != nil {
			t.Errorf("Chunk(%q) = %v; want nil", text, got)
		}
	}
}

func TestChunk_SmallTextIsOneChunk(t *testing.T) {
	got := Chunk("  short text  ", 100, 10)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("got %q", got)
	}
}

func TestChunk_RespectsLimit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"paragraphs", strings.Repeat("Paragraph with a few words in it.\n\n", 40), 120, 20},
		{"sentences", strings.Repeat("One sentence here. ", 60), 50, 10},
		{"no separators", strings.Repeat("x", 1000), 64, 8},
		{"multibyte", strings.Repeat("héllo wörld ünïcode ", 50), 30, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunk(tt.text, tt.size, tt.overlap)
			if len(chunks) < 2 {
				t.Fatalf("expected multiple chunks, got %d", len(chunks))
			}
			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > tt.size {
					t.Errorf("chunk %d has %d runes, limit %d", i, n, tt.size)
				}
				if !utf8.ValidString(c) {
					t.Errorf("chunk %d is not valid utf8", i)
				}
			}
		})
	}
}

func TestChunk_Overlap(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"
	chunks := Chunk(text, 25, 8)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		last := prev[len(prev)-1]
		if !strings.Contains(chunks[i], last) {
			t.Errorf("chunk %d %q does not carry %q from the previous chunk", i, chunks[i], last)
		}
	}
}

func TestChunk_CoversText(t *testing.T) {
	words := strings.Fields(strings.Repeat("lorem ipsum dolor sit amet ", 30))
	chunks := Chunk(strings.Join(words, " "), 40, 0)
	joined := strings.Join(chunks, " ")
	if got := len(strings.Fields(joined)); got != len(words) {
		t.Errorf("without overlap the chunks should hold every word once: got %d want %d", got, len(words))
	}
}

func TestNeedsOCR(t *testing.T) {
	tests := []struct {
		text  string
		pages int
		want  bool
	}{
		{"", 1, true},
		{strings.Repeat("a", 49), 1, true},
		{"   " + strings.Repeat("a", 49) + "   ", 1, true},
		{strings.Repeat("a", 50), 1, false},
		{strings.Repeat("a", 60), 10, true},
		{strings.Repeat("a", 100), 10, false},
		{strings.Repeat("é", 50), 1, false},
	}
	for _, tt := range tests {
		if got := NeedsOCR(tt.text, tt.pages); got != tt.want {
			t.Errorf("NeedsOCR(len=%d, pages=%d) = %v; want %v", len(tt.text), tt.pages, got, tt.want)
		}
	}
}

func TestMakeDocId(t *testing.T) {
	a := MakeDocId("papers", "/docs/a.pdf")
	if len(a) != 16 {
		t.Fatalf("doc id %q should be 16 hex chars", a)
	}
	if a != MakeDocId("papers", "/docs/a.pdf") {
		t.Error("doc id must be deterministic")
	}
	if a == MakeDocId("notes", "/docs/a.pdf") {
		t.Error("collection must be part of the doc id")
	}
	if MakeDocId("ab", "c") == MakeDocId("a", "bc") {
		t.Error("separator must keep collection and path apart")
	}
}

func TestFileHashAndMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	hash, err := ComputeFileHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if hash != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected hash %s", hash)
	}

	when := time.Unix(1700000000, 500_000_000)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}
	mtime, err := FileMtime(path)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mtime-1700000000.5) > 1e-6 {
		t.Errorf("mtime = %v", mtime)
	}
}
