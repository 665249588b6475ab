package mocks

import (
	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// MockParserRegistry is a mock implementation of ParserRegistry for testing.
// By default it returns the input bytes as text; ParseFn overrides that.
type MockParserRegistry struct {
	// ParseFn overrides the default pass-through behavior when set
	ParseFn func(data []byte, fileType domain.FileType) (string, error)

	// Err is returned by every Parse call when set
	Err error
}

// NewMockParserRegistry creates a new MockParserRegistry
func NewMockParserRegistry() *MockParserRegistry {
	return &MockParserRegistry{}
}

func (m *MockParserRegistry) Parse(data []byte, fileType domain.FileType) (string, error) {
	if m.ParseFn != nil {
		return m.ParseFn(data, fileType)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return string(data), nil
}

func (m *MockParserRegistry) Register(p driven.Parser) {}

func (m *MockParserRegistry) List() []domain.FileType {
	return []domain.FileType{domain.FileTypePDF, domain.FileTypeDocx, domain.FileTypeText}
}
