package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is a named identity grouping one or more tagged faces for one
// account's collection.
type Person struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CollectionID uuid.UUID `json:"collection_id" db:"collection_id"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FaceCollection maps an account to its remote vector collection. There is
// at most one row per account; ExternalID is the identifier of the remote
// resource and is deterministic for a given account.
type FaceCollection struct {
	ID         uuid.UUID `json:"id" db:"id"`
	AccountID  uuid.UUID `json:"account_id" db:"account_id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
