package entity

import "time"

// Bulk batch item states. Items move pending -> processing and settle as
// completed or failed; a failed item never halts the batch.
const (
	BulkItemPending    = "pending"
	BulkItemProcessing = "processing"
	BulkItemCompleted  = "completed"
	BulkItemFailed     = "failed"
)

// BulkItemInput is one row of a bulk submission. Empty Style/Colour fall back
// to the batch-level values.
type BulkItemInput struct {
	ImageType string `json:"image_type" binding:"required"`
	Title     string `json:"title"`
	Content   string `json:"content" binding:"required"`
	Style     string `json:"style"`
	Colour    string `json:"colour"`
	ImageURL  string `json:"image_url"`
	ImageSize string `json:"image_size"`
	UseBrand  bool   `json:"use_brand"`
}

type BulkCreateRequest struct {
	Items    []BulkItemInput `json:"items" binding:"required"`
	Style    string          `json:"style"`
	Colour   string          `json:"colour"`
	ClientID string          `json:"client_id"`
}

// BulkItemState is a point-in-time snapshot of one batch item.
type BulkItemState struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	ImageType   string `json:"image_type"`
	Status      string `json:"status"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
	CreditsUsed int64  `json:"credits_used,omitempty"`
}

// BulkStatusResponse reports batch progress and the final tally.
type BulkStatusResponse struct {
	BatchID     string          `json:"batch_id"`
	Done        bool            `json:"done"`
	Total       int             `json:"total"`
	Completed   int             `json:"completed"`
	Failed      int             `json:"failed"`
	CreditsUsed int64           `json:"credits_used"`
	Items       []BulkItemState `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}
