package dto

// SubmitCSVForm is the multipart form accompanying an uploaded CSV file
type SubmitCSVForm struct {
	RequestID string `form:"requestId" example:"csv-42"`
	ChunkSize int    `form:"chunkSize" example:"500"`
	Delimiter string `form:"delimiter" example:";"`
	HasHeader *bool  `form:"hasHeader" example:"true"`
}

// GetRunStatsRequest represents a run stats query request
type GetRunStatsRequest struct {
	From    int64  `form:"from" binding:"required" example:"1723475612"`
	To      int64  `form:"to" binding:"required" example:"1723562012"`
	Kind    string `form:"kind" example:"csv"`
	GroupBy string `form:"group_by" example:"kind"`
}
