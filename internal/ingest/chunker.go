package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	// DefaultChunkSize is the chunk window in words.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is the word overlap between consecutive chunks.
	DefaultChunkOverlap = 64
)

// Chunker splits extracted document text into embeddable chunks using a
// sliding word window. Markdown input is first split into heading-delimited
// sections so chunks do not straddle unrelated topics.
type Chunker struct {
	size    int
	overlap int
	parser  goldmark.Markdown
}

// NewChunker creates a chunker. Non-positive size or overlap fall back to
// the defaults; overlap is capped below size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{
		size:    size,
		overlap: overlap,
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Chunk splits text into chunks. fileType selects markdown-aware splitting
// for "md" and "markdown"; everything else uses the plain word window.
func (c *Chunker) Chunk(content, fileType string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	switch strings.ToLower(fileType) {
	case "md", "markdown":
		var chunks []string
		for _, section := range c.markdownSections([]byte(content)) {
			chunks = append(chunks, c.wordChunks(section)...)
		}
		if len(chunks) > 0 {
			return chunks
		}
		return c.wordChunks(content)
	default:
		return c.wordChunks(content)
	}
}

// wordChunks applies the sliding window: size words per chunk, stepping by
// size-overlap.
func (c *Chunker) wordChunks(content string) []string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	step := c.size - c.overlap
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(words) {
			break
		}
	}
	return chunks
}

// markdownSections parses markdown and splits it at level 1 and 2 headings.
// Each section keeps its heading text so the embedding carries the topic.
func (c *Chunker) markdownSections(source []byte) []string {
	doc := c.parser.Parser().Parse(text.NewReader(source))

	var sections []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sections = append(sections, s)
		}
		current.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok && heading.Level <= 2 {
			flush()
		}
		if t := nodeText(n, source); t != "" {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(t)
		}
	}
	flush()
	return sections
}

// nodeText collects the raw source text of a block node, recursing into
// containers (lists, quotes) that carry no lines themselves.
func nodeText(n ast.Node, source []byte) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		var b strings.Builder
		for i := 0; i < n.Lines().Len(); i++ {
			seg := n.Lines().At(i)
			b.Write(seg.Value(source))
		}
		return strings.TrimSpace(b.String())
	}

	var parts []string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t := nodeText(child, source); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Preview returns a short single-line preview of document text, truncated
// to maxChars characters on a rune boundary.
func Preview(content string, maxChars int) string {
	cleaned := strings.Join(strings.Fields(content), " ")
	runes := []rune(cleaned)
	if len(runes) <= maxChars {
		return cleaned
	}
	return string(runes[:maxChars]) + "…"
}
