package domain

import "errors"

// Startup errors abort the process before the loop starts.
var (
	// ErrDocumentNotFound signals that the configured document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrMissingCredential signals that the generation API key is not configured.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidChunkSize signals a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	// ErrInvalidTopK signals a non-positive result count.
	ErrInvalidTopK = errors.New("top k must be positive")
)

var (
	// ErrIndexing signals an embedding or storage failure while building the collection.
	ErrIndexing = errors.New("indexing failed")
	// ErrRetrieval signals that the collection could not be searched.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals an unreachable backend or a malformed response.
	ErrGeneration = errors.New("generation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// Voice capture errors are recoverable: the loop re-prompts.
var (
	// ErrNoSpeech signals that nothing was said before the wait timeout.
	ErrNoSpeech = errors.New("no speech detected")
	// ErrUnintelligible signals audio that could not be turned into text.
	ErrUnintelligible = errors.New("speech not understood")
	// ErrSpeechService signals a recorder or transcription service failure.
	ErrSpeechService = errors.New("speech service error")
)
