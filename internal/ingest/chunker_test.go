package ingest

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunk_PlainTextSlidingWindow(t *testing.T) {
	chunker := NewChunker(10, 2)

	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	content := strings.Join(words, " ")

	chunks := chunker.Chunk(content, "txt")
	if len(chunks) != 3 {
		t.Fatalf("Chunk() produced %d chunks, want 3 (step 8 over 25 words)", len(chunks))
	}

	first := strings.Fields(chunks[0])
	if len(first) != 10 || first[0] != "w0" || first[9] != "w9" {
		t.Errorf("first chunk = %v, want w0..w9", first)
	}
	second := strings.Fields(chunks[1])
	if second[0] != "w8" {
		t.Errorf("second chunk starts at %s, want w8 (overlap of 2)", second[0])
	}
	last := strings.Fields(chunks[len(chunks)-1])
	if last[len(last)-1] != "w24" {
		t.Errorf("last chunk ends at %s, want w24", last[len(last)-1])
	}
}

func TestChunk_ShortContentSingleChunk(t *testing.T) {
	chunker := NewChunker(512, 64)
	chunks := chunker.Chunk("just a few words here", "txt")
	if len(chunks) != 1 {
		t.Fatalf("Chunk() produced %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "just a few words here" {
		t.Errorf("chunk = %q, want original content", chunks[0])
	}
}

func TestChunk_EmptyContent(t *testing.T) {
	chunker := NewChunker(512, 64)
	if chunks := chunker.Chunk("   \n\t ", "txt"); chunks != nil {
		t.Errorf("Chunk() of whitespace = %v, want nil", chunks)
	}
}

func TestChunk_MarkdownSections(t *testing.T) {
	chunker := NewChunker(512, 64)
	content := `# Setup

Install the binary and run the migration step.

## Configuration

Set the environment variables before first start.

# Operations

Restart the service after every config change.`

	chunks := chunker.Chunk(content, "md")
	if len(chunks) != 3 {
		t.Fatalf("Chunk() produced %d chunks, want 3 heading-delimited sections", len(chunks))
	}
	if !strings.Contains(chunks[0], "Setup") || !strings.Contains(chunks[0], "migration") {
		t.Errorf("first section = %q, want heading and body together", chunks[0])
	}
	if !strings.Contains(chunks[1], "Configuration") {
		t.Errorf("second section = %q, want Configuration heading", chunks[1])
	}
	if strings.Contains(chunks[0], "Operations") {
		t.Errorf("first section leaked content from a later heading: %q", chunks[0])
	}
}

func TestChunk_MarkdownWithoutHeadings(t *testing.T) {
	chunker := NewChunker(512, 64)
	chunks := chunker.Chunk("plain paragraph with no headings at all", "markdown")
	if len(chunks) != 1 {
		t.Fatalf("Chunk() produced %d chunks, want 1", len(chunks))
	}
}

func TestNewChunker_Fallbacks(t *testing.T) {
	c := NewChunker(0, 0)
	if c.size != DefaultChunkSize || c.overlap != DefaultChunkOverlap {
		t.Errorf("NewChunker(0,0) = size %d overlap %d, want defaults", c.size, c.overlap)
	}

	// Overlap at or above size would make the window step non-positive.
	c = NewChunker(10, 10)
	if c.overlap >= c.size {
		t.Errorf("NewChunker(10,10) overlap = %d, must stay below size %d", c.overlap, c.size)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{"short content unchanged", "hello world", 50, "hello world"},
		{"whitespace collapsed", "hello\n\n\tworld  again", 50, "hello world again"},
		{"long content truncated", strings.Repeat("a", 30), 10, strings.Repeat("a", 10) + "…"},
		{"multibyte content cut on rune boundary", strings.Repeat("ü", 30), 10, strings.Repeat("ü", 10) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preview(tt.content, tt.max)
			if got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Preview() = %q is not valid UTF-8", got)
			}
		})
	}
}
