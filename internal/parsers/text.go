package parsers

import (
	"strings"
	"unicode/utf8"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Parser = (*TextParser)(nil)

// TextParser passes plain-text buffers through, sanitizing invalid UTF-8.
type TextParser struct{}

// NewTextParser creates a plain-text parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// FileType returns the declared type this parser handles.
func (p *TextParser) FileType() domain.FileType {
	return domain.FileTypeText
}

// Parse decodes the buffer as UTF-8, replacing invalid sequences.
func (p *TextParser) Parse(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
