package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/auth"
	"github.com/Jeff496/PicAI-sub001/internal/config"
	"github.com/Jeff496/PicAI-sub001/internal/faces"
	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/recognition"
	"github.com/Jeff496/PicAI-sub001/internal/storage"
)

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// fakeStore is a map-backed faces.Store for handler tests.
type fakeStore struct {
	mu          sync.Mutex
	photos      map[uuid.UUID]*models.Photo
	faceList    []*models.Face
	persons     map[uuid.UUID]*models.Person
	collections map[uuid.UUID]*models.FaceCollection
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		photos:      make(map[uuid.UUID]*models.Photo),
		persons:     make(map[uuid.UUID]*models.Person),
		collections: make(map[uuid.UUID]*models.FaceCollection),
	}
}

func (s *fakeStore) addPhoto(accountID uuid.UUID) *models.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Photo{ID: uuid.New(), AccountID: accountID, ObjectKey: "photos/" + uuid.NewString(), FileName: "img.jpg"}
	s.photos[p.ID] = p
	return p
}

func (s *fakeStore) addFace(photoID uuid.UUID) *models.Face {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &models.Face{
		ID:         uuid.New(),
		PhotoID:    photoID,
		Box:        &models.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.4, Height: 0.4},
		Confidence: 95,
	}
	s.faceList = append(s.faceList, f)
	return f
}

func (s *fakeStore) addCollection(accountID uuid.UUID) *models.FaceCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.FaceCollection{ID: uuid.New(), AccountID: accountID, ExternalID: "picai-" + accountID.String()}
	s.collections[accountID] = c
	return c
}

func (s *fakeStore) addPerson(collectionID uuid.UUID, name string) *models.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Person{ID: uuid.New(), CollectionID: collectionID, Name: name}
	s.persons[p.ID] = p
	return p
}

func (s *fakeStore) GetPhoto(_ context.Context, id uuid.UUID) (*models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) CreatePhoto(_ context.Context, p *models.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	s.photos[p.ID] = &cp
	return nil
}

func (s *fakeStore) DeletePhoto(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.photos, id)
	kept := s.faceList[:0]
	for _, f := range s.faceList {
		if f.PhotoID != id {
			kept = append(kept, f)
		}
	}
	s.faceList = kept
	return nil
}

func (s *fakeStore) GetFace(_ context.Context, id uuid.UUID) (*models.Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.faceList {
		if f.ID == id {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateFace(_ context.Context, f *models.Face) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.faceList = append(s.faceList, &cp)
	return nil
}

func (s *fakeStore) ListFacesByPhoto(_ context.Context, photoID uuid.UUID) ([]models.Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Face
	for _, f := range s.faceList {
		if f.PhotoID == photoID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteUnindexedFaces(_ context.Context, photoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.faceList[:0]
	for _, f := range s.faceList {
		if f.PhotoID == photoID && !f.Indexed {
			continue
		}
		kept = append(kept, f)
	}
	s.faceList = kept
	return nil
}

func (s *fakeStore) UpdateFaceTag(_ context.Context, faceID, personID uuid.UUID, externalID *string, indexed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.faceList {
		if f.ID == faceID {
			pid := personID
			f.PersonID = &pid
			f.ExternalID = externalID
			f.Indexed = indexed
			return nil
		}
	}
	return fmt.Errorf("face not found")
}

func (s *fakeStore) ClearFaceTag(_ context.Context, faceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.faceList {
		if f.ID == faceID {
			f.PersonID = nil
			f.ExternalID = nil
			f.Indexed = false
			return nil
		}
	}
	return fmt.Errorf("face not found")
}

func (s *fakeStore) ListIndexedFacesByPerson(_ context.Context, personID uuid.UUID) ([]models.Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Face
	for _, f := range s.faceList {
		if f.Indexed && f.PersonID != nil && *f.PersonID == personID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeStore) GetPerson(_ context.Context, id uuid.UUID) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) CreatePerson(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	s.persons[p.ID] = &cp
	return nil
}

func (s *fakeStore) DeletePerson(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.persons, id)
	for _, f := range s.faceList {
		if f.PersonID != nil && *f.PersonID == id {
			f.PersonID = nil
			f.ExternalID = nil
			f.Indexed = false
		}
	}
	return nil
}

func (s *fakeStore) ListPersonsByCollection(_ context.Context, collectionID uuid.UUID) ([]models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Person
	for _, p := range s.persons {
		if p.CollectionID == collectionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) GetCollectionByAccount(_ context.Context, accountID uuid.UUID) (*models.FaceCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[accountID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) GetCollection(_ context.Context, id uuid.UUID) (*models.FaceCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.collections {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertCollection(_ context.Context, c *models.FaceCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[c.AccountID]; ok {
		return fmt.Errorf("insert collection: %w", storage.ErrConflict)
	}
	c.ID = uuid.New()
	cp := *c
	s.collections[c.AccountID] = &cp
	return nil
}

// fakeImages backs both the upload path and the faces service reads.
type fakeImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: make(map[string][]byte)}
}

func (s *fakeImages) PutImage(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeImages) ReadImage(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("get image %s: no such key", key)
	}
	return data, nil
}

func (s *fakeImages) DeleteImage(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// fakeRecognizer returns scripted remote results.
type fakeRecognizer struct {
	detections  []recognition.Detection
	indexResult *recognition.IndexedFace
	matches     []recognition.FaceMatch
}

func (r *fakeRecognizer) CreateCollection(context.Context, string) error { return nil }

func (r *fakeRecognizer) DetectFaces(context.Context, []byte) ([]recognition.Detection, error) {
	return r.detections, nil
}

func (r *fakeRecognizer) IndexFace(context.Context, string, []byte, string) (*recognition.IndexedFace, error) {
	return r.indexResult, nil
}

func (r *fakeRecognizer) SearchByImage(context.Context, string, []byte, float64, int) ([]recognition.FaceMatch, error) {
	return r.matches, nil
}

func (r *fakeRecognizer) DeleteFaces(context.Context, string, []string) error { return nil }

type handlerEnv struct {
	db     *fakeStore
	images *fakeImages
	rec    *fakeRecognizer
	router *gin.Engine
}

// newHandlerEnv wires the route table over fakes. Requests authenticate by
// setting the account header; the middleware runs with key checks disabled.
func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newFakeStore()
	images := newFakeImages()
	rec := &fakeRecognizer{}
	svc := faces.NewService(db, images, rec, nil, config.FacesConfig{
		DetectionThreshold: 90,
		AutoTagThreshold:   90,
		SuggestThreshold:   80,
		MaxFacesPerPhoto:   10,
		MaxSearchResults:   5,
		MaxBulkPhotos:      20,
		CollectionPrefix:   "picai",
	})

	r := gin.New()
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(""))

	photoH := NewPhotoHandler(db, images, svc)
	v1.POST("/photos", photoH.Upload)
	v1.DELETE("/photos/:id", photoH.Delete)
	v1.POST("/photos/:id/faces/detect", photoH.Detect)
	v1.GET("/photos/:id/faces", photoH.ListFaces)
	v1.POST("/photos/detect-bulk", photoH.BulkDetect)

	faceH := NewFaceHandler(db, svc)
	v1.POST("/faces/:id/tag", faceH.Tag)
	v1.POST("/faces/:id/untag", faceH.Untag)

	personH := NewPersonHandler(db, svc)
	v1.GET("/persons", personH.List)
	v1.DELETE("/persons/:id", personH.Delete)

	return &handlerEnv{db: db, images: images, rec: rec, router: r}
}

func (e *handlerEnv) do(method, path string, accountID uuid.UUID, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Account-ID", accountID.String())

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
