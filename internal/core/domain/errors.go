package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrUnsupportedFormat indicates a file type the parser cannot handle
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDocument indicates a document with no extractable text
	ErrEmptyDocument = errors.New("extracted text is empty")

	// ErrParseFailure indicates document text extraction failed
	ErrParseFailure = errors.New("parse failure")

	// ErrEmbeddingService indicates the embedding backend failed
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrChatModel indicates the generative model backend failed
	ErrChatModel = errors.New("chat model error")

	// ErrIngestionInProgress indicates another ingestion of the same document is running
	ErrIngestionInProgress = errors.New("ingestion already in progress")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an upstream service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
