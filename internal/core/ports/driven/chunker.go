package driven

// TextChunk represents a piece of document content for processing.
type TextChunk struct {
	// Content is the text content of the chunk
	Content string

	// Position is the chunk index within the document (0-based)
	Position int

	// StartOffset is the character offset from document start
	StartOffset int

	// EndOffset is the character offset for chunk end
	EndOffset int
}

// PostProcessor applies post-processing to document content or chunks.
// Processors form a pipeline: Chunker -> Deduplicator -> etc.
type PostProcessor interface {
	// Process applies post-processing to content chunks.
	// The first processor (the chunker) receives a single chunk with the full
	// content; subsequent processors receive the previous stage's output.
	Process(chunks []TextChunk) []TextChunk

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// PostProcessorPipeline chains multiple post-processors in order.
type PostProcessorPipeline interface {
	// Process applies all processors in order. Input is the raw document
	// content; output is the chunks ready for embedding.
	Process(content string) []TextChunk

	// Add adds a processor to the pipeline.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
