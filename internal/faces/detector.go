package faces

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/observability"
)

// DetectFaces runs face detection for a photo and returns the surviving
// candidates in detection order, each annotated with a non-persisted match
// suggestion when the account already has a collection.
//
// Re-detection replaces unindexed faces from a prior run but never touches
// indexed faces: detection is cheap and repeatable, human-confirmed tags
// are not.
func (s *Service) DetectFaces(ctx context.Context, photoID uuid.UUID) ([]FaceSummary, error) {
	photo, err := s.db.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
	}

	img, err := s.images.ReadImage(ctx, photo.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read photo image: %w", err)
	}

	detections, err := s.rec.DetectFaces(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	kept := detections[:0]
	for _, d := range detections {
		if d.Confidence < s.cfg.DetectionThreshold {
			continue
		}
		kept = append(kept, d)
		if len(kept) == s.cfg.MaxFacesPerPhoto {
			break
		}
	}

	if err := s.db.DeleteUnindexedFaces(ctx, photoID); err != nil {
		return nil, err
	}

	collection, err := s.db.GetCollectionByAccount(ctx, photo.AccountID)
	if err != nil {
		return nil, err
	}

	summaries := make([]FaceSummary, 0, len(kept))
	for _, d := range kept {
		face := models.Face{
			ID:         uuid.New(),
			PhotoID:    photoID,
			Box:        NormalizeBoundingBox(d.Box),
			Confidence: d.Confidence,
		}
		if err := s.db.CreateFace(ctx, &face); err != nil {
			return nil, err
		}

		summary := FaceSummary{Face: face}
		if collection != nil {
			match, err := s.suggestMatch(ctx, collection.ExternalID, img, &face)
			if err != nil {
				return nil, err
			}
			summary.Match = match
		}
		summaries = append(summaries, summary)
	}

	observability.FacesDetected.WithLabelValues(photo.AccountID.String()).Add(float64(len(summaries)))
	slog.Info("detected faces", "photo_id", photoID, "candidates", len(detections), "kept", len(summaries))

	faceCount := len(summaries)
	s.publish(ctx, &models.FaceEvent{
		Type:      models.FaceEventDetected,
		AccountID: photo.AccountID,
		PhotoID:   &photo.ID,
		FaceCount: faceCount,
	})

	return summaries, nil
}

// suggestMatch searches the collection with the face's cropped region and
// resolves the best hit back to a person. Hits whose indexed face has since
// been untagged or deleted are skipped in favor of the next one.
func (s *Service) suggestMatch(ctx context.Context, collectionID string, photo []byte, face *models.Face) (*MatchSuggestion, error) {
	probe, err := cropFace(photo, face.Box)
	if err != nil {
		return nil, err
	}

	matches, err := s.Match(ctx, collectionID, probe, s.cfg.SuggestThreshold)
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		refID, err := uuid.Parse(m.ExternalRef)
		if err != nil {
			continue
		}
		indexed, err := s.db.GetFace(ctx, refID)
		if err != nil {
			return nil, err
		}
		if indexed == nil || indexed.PersonID == nil {
			continue
		}
		person, err := s.db.GetPerson(ctx, *indexed.PersonID)
		if err != nil {
			return nil, err
		}
		if person == nil {
			continue
		}

		observability.FacesMatched.WithLabelValues(string(ClassifyMatch(m.Similarity, s.cfg.AutoTagThreshold, s.cfg.SuggestThreshold))).Inc()
		return &MatchSuggestion{
			PersonID:   person.ID,
			PersonName: person.Name,
			Similarity: m.Similarity,
			Level:      ClassifyMatch(m.Similarity, s.cfg.AutoTagThreshold, s.cfg.SuggestThreshold),
		}, nil
	}
	return nil, nil
}
