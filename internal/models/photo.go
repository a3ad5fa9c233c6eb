package models

import (
	"time"

	"github.com/google/uuid"
)

type Photo struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	ObjectKey string    `json:"object_key" db:"object_key"`
	FileName  string    `json:"file_name" db:"file_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BoundingBox locates a face within a photo. All fields are ratios of the
// image dimensions, in [0,1].
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Face is a single detected face region within one photo.
//
// Indexed is true only after the face has been stored in the account's
// remote collection; in that state ExternalID and PersonID are non-nil.
type Face struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	PhotoID    uuid.UUID    `json:"photo_id" db:"photo_id"`
	PersonID   *uuid.UUID   `json:"person_id,omitempty" db:"person_id"`
	Box        *BoundingBox `json:"bounding_box,omitempty" db:"box"`
	Confidence float64      `json:"confidence" db:"confidence"`
	Indexed    bool         `json:"indexed" db:"indexed"`
	ExternalID *string      `json:"external_id,omitempty" db:"external_id"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}
