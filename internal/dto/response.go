package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"type is required"`
}

// SubmitResponse acknowledges an accepted ingestion request
type SubmitResponse struct {
	RequestID string `json:"requestId,omitempty" example:"gen-1"`
	Type      string `json:"type" example:"GENERATE_DATA"`
	Status    string `json:"status" example:"accepted"`
}

// EnqueueResponse acknowledges a request handed to the queue
type EnqueueResponse struct {
	RequestID string `json:"requestId,omitempty" example:"gen-1"`
	MessageID string `json:"messageId" example:"5fea7756-0ea4-451a-a703-a558b933e274"`
	Status    string `json:"status" example:"queued"`
}

// RunStatsGroupData represents aggregated runs for a specific group
type RunStatsGroupData struct {
	GroupValue string `json:"group_value" example:"csv"`
	Runs       uint64 `json:"runs" example:"42"`
	Rows       uint64 `json:"rows" example:"120000"`
}

// GetRunStatsResponse represents the run stats query response
type GetRunStatsResponse struct {
	From       int64               `json:"from" example:"1723475612"`
	To         int64               `json:"to" example:"1723562012"`
	Kind       string              `json:"kind,omitempty" example:"csv"`
	TotalRuns  uint64              `json:"total_runs" example:"50"`
	FailedRuns uint64              `json:"failed_runs" example:"3"`
	TotalRows  uint64              `json:"total_rows" example:"150000"`
	GroupBy    string              `json:"group_by,omitempty" example:"kind"`
	Groups     []RunStatsGroupData `json:"groups,omitempty"`
}
