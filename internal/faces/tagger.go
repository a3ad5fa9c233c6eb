package faces

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/observability"
)

// TagRequest names the person to bind a face to: an existing person by id,
// or a new person by name. Exactly one must be set.
type TagRequest struct {
	PersonID   *uuid.UUID
	PersonName string
}

// TagResult is the outcome of a tag operation.
type TagResult struct {
	Face   models.Face   `json:"face"`
	Person models.Person `json:"person"`
}

// TagFace binds a detected face to a person and, if the face has not been
// indexed yet, indexes its image into the account's remote collection using
// the face's own id as the correlation token.
//
// Re-tagging an already-indexed face only changes the local person link;
// the remote index entry stays as it is. If the remote service finds no
// indexable face in the region, indexing is skipped and the face stays
// unindexed but still tagged; a later tag attempt will retry the index.
func (s *Service) TagFace(ctx context.Context, faceID uuid.UUID, req TagRequest) (*TagResult, error) {
	if (req.PersonID == nil) == (req.PersonName == "") {
		return nil, ErrInvalidTag
	}

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

	collection, person, err := s.resolvePerson(ctx, photo.AccountID, req)
	if err != nil {
		return nil, err
	}

	externalID := face.ExternalID
	if !face.Indexed {
		externalID, err = s.indexFace(ctx, collection.ExternalID, photo, face)
		if err != nil {
			return nil, err
		}
	}

	if err := s.db.UpdateFaceTag(ctx, face.ID, person.ID, externalID, externalID != nil); err != nil {
		return nil, err
	}
	face.PersonID = &person.ID
	face.ExternalID = externalID
	face.Indexed = externalID != nil

	s.publish(ctx, &models.FaceEvent{
		Type:       models.FaceEventTagged,
		AccountID:  photo.AccountID,
		PhotoID:    &photo.ID,
		FaceID:     &face.ID,
		PersonID:   &person.ID,
		PersonName: person.Name,
	})

	return &TagResult{Face: *face, Person: *person}, nil
}

// resolvePerson returns the account's collection and the target person,
// creating either as needed. An existing person must belong to the
// account's own collection.
func (s *Service) resolvePerson(ctx context.Context, accountID uuid.UUID, req TagRequest) (*models.FaceCollection, *models.Person, error) {
	if req.PersonID != nil {
		person, err := s.db.GetPerson(ctx, *req.PersonID)
		if err != nil {
			return nil, nil, err
		}
		if person == nil {
			return nil, nil, fmt.Errorf("person %s: %w", req.PersonID, ErrNotFound)
		}
		collection, err := s.db.GetCollectionByAccount(ctx, accountID)
		if err != nil {
			return nil, nil, err
		}
		if collection == nil || person.CollectionID != collection.ID {
			return nil, nil, fmt.Errorf("person %s: %w", req.PersonID, ErrNotFound)
		}
		return collection, person, nil
	}

	collection, err := s.EnsureCollection(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	person := &models.Person{
		CollectionID: collection.ID,
		Name:         req.PersonName,
	}
	if err := s.db.CreatePerson(ctx, person); err != nil {
		return nil, nil, err
	}
	return collection, person, nil
}

// indexFace pushes the face's image region into the remote collection and
// returns the external face id, or nil when the service found nothing
// indexable there.
func (s *Service) indexFace(ctx context.Context, collectionID string, photo *models.Photo, face *models.Face) (*string, error) {
	img, err := s.images.ReadImage(ctx, photo.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read photo image: %w", err)
	}
	region, err := cropFace(img, face.Box)
	if err != nil {
		return nil, err
	}

	indexed, err := s.rec.IndexFace(ctx, collectionID, region, face.ID.String())
	if err != nil {
		return nil, fmt.Errorf("index face: %w", err)
	}
	if indexed == nil {
		slog.Info("no indexable face in region, skipping index", "face_id", face.ID)
		return nil, nil
	}

	observability.FacesIndexed.Inc()
	return &indexed.FaceID, nil
}
