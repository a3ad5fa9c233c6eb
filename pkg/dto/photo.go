package dto

import (
	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/faces"
)

type PhotoResponse struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt string    `json:"created_at"`
}

type BulkDetectRequest struct {
	PhotoIDs []uuid.UUID `json:"photo_ids" binding:"required"`
}

type BulkItemResponse struct {
	PhotoID       uuid.UUID `json:"photo_id"`
	Success       bool      `json:"success"`
	FacesDetected int       `json:"faces_detected,omitempty"`
	Error         string    `json:"error,omitempty"`
}

type BulkDetectResponse struct {
	Results []BulkItemResponse `json:"results"`
	Summary faces.BulkSummary  `json:"summary"`
}
