package models

// Source is one cited document in an answer. ID is the 1-based
// citation index assigned in the order sources first appear in the
// retrieval result, deduplicated by source.
type Source struct {
	ID      int    `json:"id"`
	Source  string `json:"source"`
	Preview string `json:"preview"`
}

// Answer is the grounded response returned to the caller.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// QueryRequest is the API payload for /query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	Language string `json:"language"`
	TenantID string `json:"tenant_id"`
}

// QueryResponse mirrors Answer on the wire.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// UploadResponse is returned after a document upload. Chunks is set
// for synchronous processing; TaskID when the file was queued for the
// background worker instead.
type UploadResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks,omitempty"`
	TaskID  string `json:"task_id,omitempty"`
}
