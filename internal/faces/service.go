package faces

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/config"
	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/recognition"
)

// Store is the relational side of the pipeline. *storage.PostgresStore
// satisfies it; tests use an in-memory fake.
type Store interface {
	GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	CreatePhoto(ctx context.Context, p *models.Photo) error
	DeletePhoto(ctx context.Context, id uuid.UUID) error

	GetFace(ctx context.Context, id uuid.UUID) (*models.Face, error)
	CreateFace(ctx context.Context, f *models.Face) error
	ListFacesByPhoto(ctx context.Context, photoID uuid.UUID) ([]models.Face, error)
	DeleteUnindexedFaces(ctx context.Context, photoID uuid.UUID) error
	UpdateFaceTag(ctx context.Context, faceID, personID uuid.UUID, externalID *string, indexed bool) error
	ClearFaceTag(ctx context.Context, faceID uuid.UUID) error
	ListIndexedFacesByPerson(ctx context.Context, personID uuid.UUID) ([]models.Face, error)

	GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error)
	CreatePerson(ctx context.Context, p *models.Person) error
	DeletePerson(ctx context.Context, id uuid.UUID) error
	ListPersonsByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.Person, error)

	GetCollectionByAccount(ctx context.Context, accountID uuid.UUID) (*models.FaceCollection, error)
	GetCollection(ctx context.Context, id uuid.UUID) (*models.FaceCollection, error)
	InsertCollection(ctx context.Context, c *models.FaceCollection) error
}

// ImageSource reads and removes the stored photo bytes.
type ImageSource interface {
	ReadImage(ctx context.Context, key string) ([]byte, error)
	DeleteImage(ctx context.Context, key string) error
}

// Recognizer is the remote face-recognition service. It must distinguish
// recognition.ErrAlreadyExists and recognition.ErrNotFound from other
// failures.
type Recognizer interface {
	CreateCollection(ctx context.Context, collectionID string) error
	DetectFaces(ctx context.Context, image []byte) ([]recognition.Detection, error)
	IndexFace(ctx context.Context, collectionID string, image []byte, externalRef string) (*recognition.IndexedFace, error)
	SearchByImage(ctx context.Context, collectionID string, image []byte, threshold float64, maxResults int) ([]recognition.FaceMatch, error)
	DeleteFaces(ctx context.Context, collectionID string, faceIDs []string) error
}

// EventPublisher pushes pipeline state changes onto the event bus. May be
// left nil; events are best-effort.
type EventPublisher interface {
	PublishFaceEvent(ctx context.Context, event *models.FaceEvent) error
}

// Service implements the face identity resolution pipeline. All remote and
// local dependencies are injected at construction.
type Service struct {
	db     Store
	images ImageSource
	rec    Recognizer
	events EventPublisher
	cfg    config.FacesConfig
}

func NewService(db Store, images ImageSource, rec Recognizer, events EventPublisher, cfg config.FacesConfig) *Service {
	return &Service{
		db:     db,
		images: images,
		rec:    rec,
		events: events,
		cfg:    cfg,
	}
}

// MatchSuggestion annotates a freshly detected face with the best identity
// candidate from the account's collection. It is recomputed on every
// detection run, never persisted.
type MatchSuggestion struct {
	PersonID   uuid.UUID  `json:"person_id"`
	PersonName string     `json:"person_name"`
	Similarity float64    `json:"similarity"`
	Level      MatchLevel `json:"level"`
}

// FaceSummary is the per-face output of a detection run.
type FaceSummary struct {
	Face  models.Face      `json:"face"`
	Match *MatchSuggestion `json:"match,omitempty"`
}

func (s *Service) publish(ctx context.Context, event *models.FaceEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := s.events.PublishFaceEvent(ctx, event); err != nil {
		slog.Warn("publish face event", "type", event.Type, "error", err)
	}
}

// cropFace cuts the face's bounding-box region out of the photo and
// re-encodes it as JPEG, so remote match/index calls operate on exactly one
// face. Without a box the whole photo is used and the service picks the
// most prominent face itself.
func cropFace(photo []byte, box *models.BoundingBox) ([]byte, error) {
	if box == nil || box.Width == 0 || box.Height == 0 {
		return photo, nil
	}

	img, err := imaging.Decode(bytes.NewReader(photo), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	rect := image.Rect(
		bounds.Min.X+int(box.Left*w),
		bounds.Min.Y+int(box.Top*h),
		bounds.Min.X+int((box.Left+box.Width)*w),
		bounds.Min.Y+int((box.Top+box.Height)*h),
	).Intersect(bounds)
	if rect.Empty() {
		return photo, nil
	}

	cropped := imaging.Crop(img, rect)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}
