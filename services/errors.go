package services

import "errors"

// Sentinel errors for the ingestion and retrieval pipeline. Callers
// classify failures with errors.Is; the route layer maps each kind to
// an HTTP status.
var (
	// ErrUnsupportedFormat means the uploaded file could not be parsed
	// as any of the supported document formats.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument means extraction succeeded but produced no text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrOversizedUpload means the file exceeds the configured maximum
	// upload size. Detected before any index mutation.
	ErrOversizedUpload = errors.New("upload exceeds maximum file size")

	// ErrIndexNotFound means the named collection does not exist.
	ErrIndexNotFound = errors.New("vector index collection not found")

	// ErrIndexAlreadyExists means Create was called on a collection
	// that already holds entries; callers must Add instead.
	ErrIndexAlreadyExists = errors.New("vector index collection already has content")

	// ErrNoDocumentsIndexed means a query arrived before any document
	// was uploaded. Distinct from a retrieval backend failure.
	ErrNoDocumentsIndexed = errors.New("no documents have been indexed yet")

	// ErrGenerationProvider wraps embedding or generation backend
	// failures (network, auth, quota). Never retried here; the caller
	// owns retry policy.
	ErrGenerationProvider = errors.New("generation provider error")

	// ErrTimeout means an embedding or generation call exceeded its
	// configured deadline. Surfaced distinctly so callers can tell
	// "slow" from "broken".
	ErrTimeout = errors.New("provider call timed out")
)
