package domain

import "time"

// FileType identifies the declared format of an uploaded document.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDocx FileType = "docx"
	FileTypeText FileType = "txt"
)

// Valid reports whether the file type is one of the supported formats.
func (f FileType) Valid() bool {
	switch f {
	case FileTypePDF, FileTypeDocx, FileTypeText:
		return true
	}
	return false
}

// DocumentStatus represents the ingestion lifecycle of a document.
// Transitions: pending -> processing -> completed | failed.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document represents an uploaded knowledge-base file owned by a company and bot.
// Only completed documents are visible to retrieval.
type Document struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"company_id"`
	BotID       string         `json:"bot_id"`
	Filename    string         `json:"filename"`
	FileType    FileType       `json:"file_type"`
	FileSize    int64          `json:"file_size"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	ChunkCount  int            `json:"chunk_count"`
	Error       string         `json:"error_message,omitempty"`

	IngestionStartedAt   *time.Time `json:"ingestion_started_at,omitempty"`
	IngestionCompletedAt *time.Time `json:"ingestion_completed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Chunk is a searchable slice of a document, stored with its embedding vector.
// CompanyID and BotID are denormalized so every search filters on them directly.
type Chunk struct {
	ID         string            `json:"id"`
	CompanyID  string            `json:"company_id"`
	BotID      string            `json:"bot_id"`
	DocumentID string            `json:"document_id"`
	Text       string            `json:"chunk_text"`
	Index      int               `json:"chunk_index"` // 0-based, contiguous within a document
	Embedding  []float32         `json:"embedding,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// RankedChunk is a chunk returned from a similarity search.
type RankedChunk struct {
	ID         string            `json:"id"`
	Text       string            `json:"chunk_text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float64           `json:"similarity"`
}
