package faces

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/recognition"
)

// UntagFace removes a face's person link and its remote index entry. The
// detected face itself stays. A remote "not found" is already-clean state
// and is absorbed; any other remote failure aborts before local changes so
// the two sides cannot silently diverge.
func (s *Service) UntagFace(ctx context.Context, faceID uuid.UUID) (*models.Face, error) {
	face, err := s.db.GetFace(ctx, faceID)
	if err != nil {
		return nil, err
	}
	if face == nil {
		return nil, fmt.Errorf("face %s: %w", faceID, ErrNotFound)
	}

	photo, err := s.db.GetPhoto(ctx, face.PhotoID)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, fmt.Errorf("photo %s: %w", face.PhotoID, ErrNotFound)
	}

	if face.Indexed && face.ExternalID != nil {
		collection, err := s.db.GetCollectionByAccount(ctx, photo.AccountID)
		if err != nil {
			return nil, err
		}
		if collection != nil {
			err := s.rec.DeleteFaces(ctx, collection.ExternalID, []string{*face.ExternalID})
			if err != nil && !errors.Is(err, recognition.ErrNotFound) {
				return nil, fmt.Errorf("remove remote face: %w", err)
			}
		}
	}

	if err := s.db.ClearFaceTag(ctx, faceID); err != nil {
		return nil, err
	}
	face.PersonID = nil
	face.ExternalID = nil
	face.Indexed = false

	s.publish(ctx, &models.FaceEvent{
		Type:      models.FaceEventUntagged,
		AccountID: photo.AccountID,
		PhotoID:   &photo.ID,
		FaceID:    &face.ID,
	})

	return face, nil
}

// DeletePerson removes a person and every trace of them: remote index
// entries first (best-effort, per-face log-and-continue), then the local
// row, which unlinks all faces. An orphaned remote entry is an acceptable
// residual; a local row referencing a deleted person is not.
func (s *Service) DeletePerson(ctx context.Context, personID uuid.UUID) error {
	person, err := s.db.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	if person == nil {
		return fmt.Errorf("person %s: %w", personID, ErrNotFound)
	}

	collection, err := s.db.GetCollection(ctx, person.CollectionID)
	if err != nil {
		return err
	}

	indexed, err := s.db.ListIndexedFacesByPerson(ctx, personID)
	if err != nil {
		return err
	}
	if collection != nil {
		for _, face := range indexed {
			if face.ExternalID == nil {
				continue
			}
			err := s.rec.DeleteFaces(ctx, collection.ExternalID, []string{*face.ExternalID})
			if err != nil && !errors.Is(err, recognition.ErrNotFound) {
				slog.Warn("remove remote face for deleted person",
					"person_id", personID, "face_id", face.ID, "error", err)
			}
		}
	}

	if err := s.db.DeletePerson(ctx, personID); err != nil {
		return err
	}

	s.publish(ctx, &models.FaceEvent{
		Type:       models.FaceEventPersonDeleted,
		AccountID:  collectionAccount(collection),
		PersonID:   &personID,
		PersonName: person.Name,
	})
	return nil
}

func collectionAccount(c *models.FaceCollection) uuid.UUID {
	if c == nil {
		return uuid.Nil
	}
	return c.AccountID
}

// DeletePhoto removes the photo row (cascading its faces) before any remote
// or file cleanup, so a cleanup failure can only leave orphaned remote
// state, never a local record pointing at a deleted photo. Cleanup failures
// are logged and ignored.
func (s *Service) DeletePhoto(ctx context.Context, photoID uuid.UUID) error {
	photo, err := s.db.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
	}

	facesForPhoto, err := s.db.ListFacesByPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	var externalIDs []string
	for _, f := range facesForPhoto {
		if f.Indexed && f.ExternalID != nil {
			externalIDs = append(externalIDs, *f.ExternalID)
		}
	}

	if err := s.db.DeletePhoto(ctx, photoID); err != nil {
		return err
	}

	if len(externalIDs) > 0 {
		collection, err := s.db.GetCollectionByAccount(ctx, photo.AccountID)
		if err != nil {
			slog.Warn("load collection for photo cleanup", "photo_id", photoID, "error", err)
		} else if collection != nil {
			err := s.rec.DeleteFaces(ctx, collection.ExternalID, externalIDs)
			if err != nil && !errors.Is(err, recognition.ErrNotFound) {
				slog.Warn("remove remote faces for deleted photo",
					"photo_id", photoID, "count", len(externalIDs), "error", err)
			}
		}
	}

	if err := s.images.DeleteImage(ctx, photo.ObjectKey); err != nil {
		slog.Warn("delete photo image", "photo_id", photoID, "key", photo.ObjectKey, "error", err)
	}

	return nil
}
