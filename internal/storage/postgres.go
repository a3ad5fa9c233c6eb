package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeff496/PicAI-sub001/internal/config"
	"github.com/Jeff496/PicAI-sub001/internal/models"
)

// ErrConflict is returned when an insert loses a uniqueness race. Callers
// that can adopt the winning row check for it with errors.Is.
var ErrConflict = errors.New("storage: conflict")

const uniqueViolationCode = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// --- Photos ---

func (s *PostgresStore) CreatePhoto(ctx context.Context, p *models.Photo) error {
	p.ID = uuid.New()
	return s.pool.QueryRow(ctx,
		`INSERT INTO photos (id, account_id, object_key, file_name) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		p.ID, p.AccountID, p.ObjectKey, p.FileName,
	).Scan(&p.CreatedAt)
}

func (s *PostgresStore) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	p := &models.Photo{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_id, object_key, file_name, created_at FROM photos WHERE id = $1`, id,
	).Scan(&p.ID, &p.AccountID, &p.ObjectKey, &p.FileName, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

// DeletePhoto removes the photo row. Face rows cascade via the photo_id
// foreign key.
func (s *PostgresStore) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo not found")
	}
	return nil
}

// --- Faces ---

func (s *PostgresStore) CreateFace(ctx context.Context, f *models.Face) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO faces (id, photo_id, person_id, box_left, box_top, box_width, box_height, confidence, indexed, external_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`,
		f.ID, f.PhotoID, f.PersonID,
		boxField(f.Box, 0), boxField(f.Box, 1), boxField(f.Box, 2), boxField(f.Box, 3),
		f.Confidence, f.Indexed, f.ExternalID,
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("create face: %w", err)
	}
	return nil
}

func boxField(b *models.BoundingBox, i int) float64 {
	if b == nil {
		return 0
	}
	switch i {
	case 0:
		return b.Left
	case 1:
		return b.Top
	case 2:
		return b.Width
	default:
		return b.Height
	}
}

const faceColumns = `id, photo_id, person_id, box_left, box_top, box_width, box_height, confidence, indexed, external_id, created_at`

func scanFace(row pgx.Row) (*models.Face, error) {
	f := &models.Face{Box: &models.BoundingBox{}}
	err := row.Scan(&f.ID, &f.PhotoID, &f.PersonID,
		&f.Box.Left, &f.Box.Top, &f.Box.Width, &f.Box.Height,
		&f.Confidence, &f.Indexed, &f.ExternalID, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *PostgresStore) GetFace(ctx context.Context, id uuid.UUID) (*models.Face, error) {
	f, err := scanFace(s.pool.QueryRow(ctx,
		`SELECT `+faceColumns+` FROM faces WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get face: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListFacesByPhoto(ctx context.Context, photoID uuid.UUID) ([]models.Face, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+faceColumns+` FROM faces WHERE photo_id = $1 ORDER BY created_at, id`, photoID)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	var faces []models.Face
	for rows.Next() {
		f, err := scanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces = append(faces, *f)
	}
	return faces, nil
}

// DeleteUnindexedFaces drops stale detections for a photo ahead of a
// re-detection run. Indexed faces are never touched here.
func (s *PostgresStore) DeleteUnindexedFaces(ctx context.Context, photoID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM faces WHERE photo_id = $1 AND indexed = false`, photoID)
	if err != nil {
		return fmt.Errorf("delete unindexed faces: %w", err)
	}
	return nil
}

// UpdateFaceTag binds a face to a person and records the outcome of the
// remote index attempt.
func (s *PostgresStore) UpdateFaceTag(ctx context.Context, faceID, personID uuid.UUID, externalID *string, indexed bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE faces SET person_id = $1, external_id = $2, indexed = $3 WHERE id = $4`,
		personID, externalID, indexed, faceID)
	if err != nil {
		return fmt.Errorf("update face tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("face not found")
	}
	return nil
}

// ClearFaceTag reverts a face to its freshly detected state.
func (s *PostgresStore) ClearFaceTag(ctx context.Context, faceID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE faces SET person_id = NULL, external_id = NULL, indexed = false WHERE id = $1`,
		faceID)
	if err != nil {
		return fmt.Errorf("clear face tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("face not found")
	}
	return nil
}

func (s *PostgresStore) ListIndexedFacesByPerson(ctx context.Context, personID uuid.UUID) ([]models.Face, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+faceColumns+` FROM faces WHERE person_id = $1 AND indexed = true`, personID)
	if err != nil {
		return nil, fmt.Errorf("list indexed faces: %w", err)
	}
	defer rows.Close()

	var faces []models.Face
	for rows.Next() {
		f, err := scanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces = append(faces, *f)
	}
	return faces, nil
}

// --- Persons ---

func (s *PostgresStore) CreatePerson(ctx context.Context, p *models.Person) error {
	p.ID = uuid.New()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO persons (id, collection_id, name) VALUES ($1, $2, $3) RETURNING created_at, updated_at`,
		p.ID, p.CollectionID, p.Name,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p := &models.Person{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, collection_id, name, created_at, updated_at FROM persons WHERE id = $1`, id,
	).Scan(&p.ID, &p.CollectionID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPersonsByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, collection_id, name, created_at, updated_at FROM persons WHERE collection_id = $1 ORDER BY name`,
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.CollectionID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, nil
}

// DeletePerson removes the person row and unlinks its faces in one
// transaction. Unlinked faces lose their indexed state as well, since their
// remote index entries are removed by the caller before this runs.
func (s *PostgresStore) DeletePerson(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete person: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE faces SET person_id = NULL, external_id = NULL, indexed = false WHERE person_id = $1`, id); err != nil {
		return fmt.Errorf("unlink faces: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person not found")
	}

	return tx.Commit(ctx)
}

// --- Face collections ---

func (s *PostgresStore) GetCollectionByAccount(ctx context.Context, accountID uuid.UUID) (*models.FaceCollection, error) {
	c := &models.FaceCollection{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_id, external_id, created_at FROM face_collections WHERE account_id = $1`, accountID,
	).Scan(&c.ID, &c.AccountID, &c.ExternalID, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetCollection(ctx context.Context, id uuid.UUID) (*models.FaceCollection, error) {
	c := &models.FaceCollection{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_id, external_id, created_at FROM face_collections WHERE id = $1`, id,
	).Scan(&c.ID, &c.AccountID, &c.ExternalID, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

// InsertCollection creates the account's collection row. The account_id
// column carries a unique constraint; losing that race returns ErrConflict
// so the caller can re-read and adopt the winning row.
func (s *PostgresStore) InsertCollection(ctx context.Context, c *models.FaceCollection) error {
	c.ID = uuid.New()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO face_collections (id, account_id, external_id) VALUES ($1, $2, $3) RETURNING created_at`,
		c.ID, c.AccountID, c.ExternalID,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert collection: %w", ErrConflict)
		}
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}
