package faces

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// BulkItemResult records the outcome of detection for one photo.
type BulkItemResult struct {
	PhotoID       uuid.UUID `json:"photo_id"`
	Success       bool      `json:"success"`
	FacesDetected int       `json:"faces_detected,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// BulkSummary aggregates a bulk detection run.
type BulkSummary struct {
	Total              int `json:"total"`
	Succeeded          int `json:"succeeded"`
	Failed             int `json:"failed"`
	TotalFacesDetected int `json:"total_faces_detected"`
}

type BulkResult struct {
	Results []BulkItemResult `json:"results"`
	Summary BulkSummary      `json:"summary"`
}

// BulkDetect runs detection over many photos with per-item isolation: one
// photo's failure never aborts the batch. Photos the account cannot access
// are recorded as failures without invoking the detector. Items are
// processed strictly sequentially to stay inside the recognition service's
// rate limits.
func (s *Service) BulkDetect(ctx context.Context, accountID uuid.UUID, photoIDs []uuid.UUID) (*BulkResult, error) {
	if len(photoIDs) > s.cfg.MaxBulkPhotos {
		return nil, fmt.Errorf("%w: %d photos, limit %d", ErrTooManyPhotos, len(photoIDs), s.cfg.MaxBulkPhotos)
	}

	result := &BulkResult{
		Results: make([]BulkItemResult, 0, len(photoIDs)),
		Summary: BulkSummary{Total: len(photoIDs)},
	}

	for _, photoID := range photoIDs {
		item := BulkItemResult{PhotoID: photoID}

		photo, err := s.db.GetPhoto(ctx, photoID)
		switch {
		case err != nil:
			item.Error = err.Error()
		case photo == nil || photo.AccountID != accountID:
			item.Error = "access denied"
		default:
			summaries, err := s.DetectFaces(ctx, photoID)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Success = true
				item.FacesDetected = len(summaries)
			}
		}

		if item.Success {
			result.Summary.Succeeded++
			result.Summary.TotalFacesDetected += item.FacesDetected
		} else {
			result.Summary.Failed++
		}
		result.Results = append(result.Results, item)
	}

	slog.Info("bulk detection finished",
		"account_id", accountID,
		"total", result.Summary.Total,
		"succeeded", result.Summary.Succeeded,
		"failed", result.Summary.Failed,
		"faces", result.Summary.TotalFacesDetected,
	)
	return result, nil
}
