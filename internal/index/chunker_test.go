package index

import (
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	c := NewChunker(1000, 100)
	if chunks := c.Split(""); chunks != nil {
		t.Errorf("Split(\"\") = %v, want nil", chunks)
	}
}

func TestSplitShorterThanWindow(t *testing.T) {
	c := NewChunker(1000, 100)
	chunks := c.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("Split = %v, want single original chunk", chunks)
	}
}

func TestSplitWindowMath(t *testing.T) {
	c := NewChunker(10, 3)
	text := "abcdefghijklmnopqrstuvwxy" // 25 runes

	chunks := c.Split(text)
	want := []string{
		"abcdefghij", // 0..10
		"hijklmnopq", // 7..17
		"opqrstuvwx", // 14..24
		"vwxy",       // 21..25
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %v, want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitOverlap(t *testing.T) {
	c := NewChunker(1000, 100)
	text := strings.Repeat("x", 1500)

	chunks := c.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if len(chunks[0]) != 1000 {
		t.Errorf("first chunk = %d runes, want 1000", len(chunks[0]))
	}
	// second window starts at 900, runs to end of text
	if len(chunks[1]) != 600 {
		t.Errorf("second chunk = %d runes, want 600", len(chunks[1]))
	}
}

func TestSplitMultibyte(t *testing.T) {
	c := NewChunker(4, 1)
	text := "héllо wörld" // mixed multi-byte runes

	chunks := c.Split(text)
	joined := strings.Join(chunks, "")
	for _, chunk := range chunks {
		if !strings.Contains(text, chunk) {
			t.Errorf("chunk %q split a multi-byte rune", chunk)
		}
	}
	if !strings.HasPrefix(joined, "héll") {
		t.Errorf("unexpected first window in %q", joined)
	}
}

func TestSplitNoInfiniteLoop(t *testing.T) {
	// overlap >= size degenerates to step 1 rather than looping forever
	c := NewChunker(2, 5)
	chunks := c.Split("abcd")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0] != "ab" {
		t.Errorf("first chunk = %q, want %q", chunks[0], "ab")
	}
}
