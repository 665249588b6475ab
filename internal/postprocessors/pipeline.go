// Package postprocessors splits parsed document content into chunks ready
// for embedding. Processors run in a fixed order; the chunker always runs
// first and later stages operate on its output.
package postprocessors

import (
	"sort"
	"strings"

	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Pipeline chains post-processors in order.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline with the given processors, sorted by order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	p := &Pipeline{}
	for _, proc := range processors {
		p.Add(proc)
	}
	return p
}

// DefaultPipeline returns the standard ingestion pipeline: a recursive
// character chunker followed by whitespace cleanup.
func DefaultPipeline() *Pipeline {
	return NewPipeline(
		NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap),
		NewWhitespaceNormalizer(),
	)
}

// Add inserts a processor keeping the pipeline sorted by Order.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
	sort.SliceStable(p.processors, func(i, j int) bool {
		return p.processors[i].Order() < p.processors[j].Order()
	})
}

// Process runs the content through every processor in order.
func (p *Pipeline) Process(content string) []driven.TextChunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	chunks := []driven.TextChunk{{
		Content:     content,
		Position:    0,
		StartOffset: 0,
		EndOffset:   len(content),
	}}

	for _, proc := range p.processors {
		chunks = proc.Process(chunks)
		if len(chunks) == 0 {
			return nil
		}
	}
	return chunks
}

// List returns processor names in pipeline order.
func (p *Pipeline) List() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

const (
	// DefaultChunkSize is the target chunk size in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters carried over from the
	// end of one chunk into the start of the next.
	DefaultChunkOverlap = 100
)

// separators are tried in order when looking for a split point. The empty
// string is the hard-cut fallback for content with no natural boundaries.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveChunker splits content on progressively finer boundaries:
// paragraphs first, then lines, sentences, words, and finally a hard
// character cut. Output is deterministic for a given input.
type RecursiveChunker struct {
	size    int
	overlap int
}

// NewRecursiveChunker creates a chunker with the given size and overlap.
// Invalid values fall back to the defaults.
func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 10
		}
	}
	return &RecursiveChunker{size: size, overlap: overlap}
}

// Name returns the processor name.
func (c *RecursiveChunker) Name() string { return "recursive_chunker" }

// Order returns 0: the chunker always runs first.
func (c *RecursiveChunker) Order() int { return 0 }

// Process splits the incoming content into chunks of at most c.size
// characters with c.overlap characters of overlap between neighbours.
func (c *RecursiveChunker) Process(chunks []driven.TextChunk) []driven.TextChunk {
	var out []driven.TextChunk
	for _, in := range chunks {
		parts := c.split(in.Content, separators)
		out = append(out, c.merge(parts, in.StartOffset, len(out))...)
	}
	return out
}

// split recursively breaks text into pieces no longer than c.size. Each
// level tries the next finer separator; pieces that still exceed the size
// after the last separator are hard-cut.
func (c *RecursiveChunker) split(text string, seps []string) []string {
	if len(text) <= c.size {
		return []string{text}
	}

	if len(seps) == 0 || seps[0] == "" {
		return c.hardCut(text)
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return c.split(text, seps[1:])
	}

	var out []string
	for _, seg := range strings.SplitAfter(text, sep) {
		if seg == "" {
			continue
		}
		if len(seg) > c.size {
			out = append(out, c.split(seg, seps[1:])...)
		} else {
			out = append(out, seg)
		}
	}
	return out
}

// hardCut slices text into fixed-size pieces when no separator applies.
func (c *RecursiveChunker) hardCut(text string) []string {
	var out []string
	for len(text) > c.size {
		out = append(out, text[:c.size])
		text = text[c.size:]
	}
	if len(text) > 0 {
		out = append(out, text)
	}
	return out
}

// merge greedily packs split pieces into chunks up to c.size, carrying the
// trailing c.overlap characters of each chunk into the start of the next.
func (c *RecursiveChunker) merge(parts []string, baseOffset, basePosition int) []driven.TextChunk {
	var (
		out     []driven.TextChunk
		current strings.Builder
		start   = baseOffset
		cursor  = baseOffset
	)

	flush := func() {
		content := current.String()
		if strings.TrimSpace(content) == "" {
			current.Reset()
			return
		}
		out = append(out, driven.TextChunk{
			Content:     content,
			Position:    basePosition + len(out),
			StartOffset: start,
			EndOffset:   start + len(content),
		})
		current.Reset()
	}

	for _, part := range parts {
		if current.Len()+len(part) > c.size && current.Len() > 0 {
			content := current.String()
			flush()

			// Seed the next chunk with the overlap tail of the previous one,
			// but never past the size limit: when the incoming part leaves no
			// room for the tail, the overlap is dropped rather than producing
			// an oversized chunk.
			tail := content
			if len(tail) > c.overlap {
				tail = tail[len(tail)-c.overlap:]
			}
			if len(tail)+len(part) <= c.size {
				start = cursor - len(tail)
				current.WriteString(tail)
			}
		}
		if current.Len() == 0 {
			start = cursor
		}
		current.WriteString(part)
		cursor += len(part)
	}
	flush()

	return out
}

// WhitespaceNormalizer trims chunks and drops those left empty. It runs
// after the chunker so offsets stay anchored to the original content.
type WhitespaceNormalizer struct{}

// NewWhitespaceNormalizer creates a whitespace cleanup processor.
func NewWhitespaceNormalizer() *WhitespaceNormalizer { return &WhitespaceNormalizer{} }

// Name returns the processor name.
func (n *WhitespaceNormalizer) Name() string { return "whitespace_normalizer" }

// Order places the normalizer after the chunker.
func (n *WhitespaceNormalizer) Order() int { return 10 }

// Process trims surrounding whitespace and renumbers positions.
func (n *WhitespaceNormalizer) Process(chunks []driven.TextChunk) []driven.TextChunk {
	out := make([]driven.TextChunk, 0, len(chunks))
	for _, ch := range chunks {
		trimmed := strings.TrimSpace(ch.Content)
		if trimmed == "" {
			continue
		}
		leading := strings.Index(ch.Content, trimmed)
		ch.Content = trimmed
		ch.StartOffset += leading
		ch.EndOffset = ch.StartOffset + len(trimmed)
		ch.Position = len(out)
		out = append(out, ch)
	}
	return out
}
