package faces

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/config"
	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/recognition"
	"github.com/Jeff496/PicAI-sub001/internal/storage"
)

func testFacesConfig() config.FacesConfig {
	return config.FacesConfig{
		DetectionThreshold: 90,
		AutoTagThreshold:   90,
		SuggestThreshold:   80,
		MaxFacesPerPhoto:   10,
		MaxSearchResults:   5,
		MaxBulkPhotos:      20,
		CollectionPrefix:   "picai",
	}
}

// testJPEG returns a real encoded image so face-region crops succeed.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// --- in-memory store ---

type memStore struct {
	mu          sync.Mutex
	photos      map[uuid.UUID]*models.Photo
	faceList    []*models.Face // ordered by creation
	persons     map[uuid.UUID]*models.Person
	collections map[uuid.UUID]*models.FaceCollection // by account
}

func newMemStore() *memStore {
	return &memStore{
		photos:      make(map[uuid.UUID]*models.Photo),
		persons:     make(map[uuid.UUID]*models.Person),
		collections: make(map[uuid.UUID]*models.FaceCollection),
	}
}

func (m *memStore) addPhoto(accountID uuid.UUID) *models.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Photo{ID: uuid.New(), AccountID: accountID, ObjectKey: "photos/" + uuid.NewString()}
	m.photos[p.ID] = p
	return p
}

func (m *memStore) GetPhoto(_ context.Context, id uuid.UUID) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CreatePhoto(_ context.Context, p *models.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	m.photos[p.ID] = p
	return nil
}

func (m *memStore) DeletePhoto(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return fmt.Errorf("photo not found")
	}
	delete(m.photos, id)
	kept := m.faceList[:0]
	for _, f := range m.faceList {
		if f.PhotoID != id {
			kept = append(kept, f)
		}
	}
	m.faceList = kept
	return nil
}

func (m *memStore) GetFace(_ context.Context, id uuid.UUID) (*models.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.faceList {
		if f.ID == id {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateFace(_ context.Context, f *models.Face) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.faceList = append(m.faceList, &cp)
	return nil
}

func (m *memStore) ListFacesByPhoto(_ context.Context, photoID uuid.UUID) ([]models.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Face
	for _, f := range m.faceList {
		if f.PhotoID == photoID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memStore) DeleteUnindexedFaces(_ context.Context, photoID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.faceList[:0]
	for _, f := range m.faceList {
		if f.PhotoID == photoID && !f.Indexed {
			continue
		}
		kept = append(kept, f)
	}
	m.faceList = kept
	return nil
}

func (m *memStore) UpdateFaceTag(_ context.Context, faceID, personID uuid.UUID, externalID *string, indexed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.faceList {
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

func (m *memStore) ClearFaceTag(_ context.Context, faceID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.faceList {
		if f.ID == faceID {
			f.PersonID = nil
			f.ExternalID = nil
			f.Indexed = false
			return nil
		}
	}
	return fmt.Errorf("face not found")
}

func (m *memStore) ListIndexedFacesByPerson(_ context.Context, personID uuid.UUID) ([]models.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Face
	for _, f := range m.faceList {
		if f.Indexed && f.PersonID != nil && *f.PersonID == personID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memStore) GetPerson(_ context.Context, id uuid.UUID) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.persons[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CreatePerson(_ context.Context, p *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	m.persons[p.ID] = &cp
	return nil
}

func (m *memStore) DeletePerson(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.persons[id]; !ok {
		return fmt.Errorf("person not found")
	}
	delete(m.persons, id)
	for _, f := range m.faceList {
		if f.PersonID != nil && *f.PersonID == id {
			f.PersonID = nil
			f.ExternalID = nil
			f.Indexed = false
		}
	}
	return nil
}

func (m *memStore) ListPersonsByCollection(_ context.Context, collectionID uuid.UUID) ([]models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Person
	for _, p := range m.persons {
		if p.CollectionID == collectionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) GetCollectionByAccount(_ context.Context, accountID uuid.UUID) (*models.FaceCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[accountID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetCollection(_ context.Context, id uuid.UUID) (*models.FaceCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.collections {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertCollection(_ context.Context, c *models.FaceCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[c.AccountID]; ok {
		return fmt.Errorf("insert collection: %w", storage.ErrConflict)
	}
	c.ID = uuid.New()
	cp := *c
	m.collections[c.AccountID] = &cp
	return nil
}

// --- image source fake ---

type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	readErr error
	delErr  error
}

func newMemImages() *memImages {
	return &memImages{objects: make(map[string][]byte)}
}

func (m *memImages) put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

func (m *memImages) ReadImage(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get image %s: no such key", key)
	}
	return data, nil
}

func (m *memImages) DeleteImage(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- recognizer fake ---

type deleteCall struct {
	collectionID string
	faceIDs      []string
}

// fakeRecognizer scripts the remote service. Collections created through
// it are tracked so CreateCollection can report AlreadyExists.
type fakeRecognizer struct {
	mu          sync.Mutex
	collections map[string]bool

	detections []recognition.Detection
	detectErr  error

	indexResult *recognition.IndexedFace
	indexErr    error
	indexCalls  int

	searchResults []recognition.FaceMatch
	searchErr     error
	searchCalls   int

	deleteCalls []deleteCall
	deleteErr   error

	createErr       error
	createCalls     int
	createSucceeded int
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{collections: make(map[string]bool)}
}

func (r *fakeRecognizer) CreateCollection(_ context.Context, collectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	if r.collections[collectionID] {
		return fmt.Errorf("create collection: %w", recognition.ErrAlreadyExists)
	}
	r.collections[collectionID] = true
	r.createSucceeded++
	return nil
}

func (r *fakeRecognizer) DetectFaces(_ context.Context, _ []byte) ([]recognition.Detection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detectErr != nil {
		return nil, r.detectErr
	}
	return r.detections, nil
}

func (r *fakeRecognizer) IndexFace(_ context.Context, _ string, _ []byte, _ string) (*recognition.IndexedFace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexCalls++
	if r.indexErr != nil {
		return nil, r.indexErr
	}
	return r.indexResult, nil
}

func (r *fakeRecognizer) SearchByImage(_ context.Context, _ string, _ []byte, threshold float64, _ int) ([]recognition.FaceMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchCalls++
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	var out []recognition.FaceMatch
	for _, m := range r.searchResults {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRecognizer) DeleteFaces(_ context.Context, collectionID string, faceIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls = append(r.deleteCalls, deleteCall{collectionID: collectionID, faceIDs: faceIDs})
	return r.deleteErr
}

// --- event publisher fake ---

type memEvents struct {
	mu     sync.Mutex
	events []models.FaceEvent
}

func (m *memEvents) PublishFaceEvent(_ context.Context, event *models.FaceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

// newTestService wires a Service over fresh fakes.
func newTestService(t *testing.T) (*Service, *memStore, *memImages, *fakeRecognizer) {
	t.Helper()
	db := newMemStore()
	images := newMemImages()
	rec := newFakeRecognizer()
	svc := NewService(db, images, rec, &memEvents{}, testFacesConfig())
	return svc, db, images, rec
}
