package driven

import "github.com/botmesh/botmesh-core/internal/core/domain"

// Parser extracts plain text from a raw file buffer of one declared type.
type Parser interface {
	// Parse converts the raw bytes into plain text.
	Parse(data []byte) (string, error)

	// FileType returns the declared type this parser handles.
	FileType() domain.FileType
}

// ParserRegistry dispatches parsing by declared file type.
type ParserRegistry interface {
	// Parse extracts text using the parser registered for the file type.
	// Returns domain.ErrUnsupportedFormat for an unregistered type.
	Parse(data []byte, fileType domain.FileType) (string, error)

	// Register registers a parser for its file type.
	Register(p Parser)

	// List returns all registered file types.
	List() []domain.FileType
}
