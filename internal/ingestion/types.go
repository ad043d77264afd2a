// Package ingestion defines the request/response types and Kafka event schema
// of the document ingestion pipeline.
package ingestion

import "time"

// Ingestion statuses reported to the caller.
const (
	StatusPending   = "PENDING"
	StatusIndexed   = "INDEXED"
	StatusUnchanged = "UNCHANGED"
)

// IngestRequest is the JSON body accepted by POST /api/v1/documents. An
// empty ID asks the service to assign one.
type IngestRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Generation uint64 `json:"generation,omitempty"`
}

// DocumentEvent is the Kafka payload produced after a document is persisted.
// Indexers rebuild from the document table, so the text is not carried.
type DocumentEvent struct {
	DocumentID  string    `json:"document_id"`
	ContentHash string    `json:"content_hash"`
	IngestedAt  time.Time `json:"ingested_at"`
}
