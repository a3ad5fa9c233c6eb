package dto

import (
	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/faces"
	"github.com/Jeff496/PicAI-sub001/internal/models"
)

type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type PersonRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type MatchResponse struct {
	PersonID   uuid.UUID `json:"person_id"`
	PersonName string    `json:"person_name"`
	Similarity float64   `json:"similarity"`
	Level      string    `json:"level"`
}

type FaceResponse struct {
	ID          uuid.UUID      `json:"id"`
	BoundingBox *BoundingBox   `json:"bounding_box"`
	Confidence  float64        `json:"confidence"`
	Indexed     bool           `json:"indexed"`
	Person      *PersonRef     `json:"person"`
	Match       *MatchResponse `json:"match"`
}

type TagFaceRequest struct {
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	PersonName string     `json:"person_name,omitempty"`
}

type TagFaceResponse struct {
	Face   FaceResponse   `json:"face"`
	Person PersonResponse `json:"person"`
}

// NewFaceResponse builds the wire shape for one face. The person reference
// must be resolved by the caller (nil when untagged).
func NewFaceResponse(f *models.Face, person *models.Person, match *faces.MatchSuggestion) FaceResponse {
	resp := FaceResponse{
		ID:         f.ID,
		Confidence: f.Confidence,
		Indexed:    f.Indexed,
	}
	if f.Box != nil {
		resp.BoundingBox = &BoundingBox{
			Left:   f.Box.Left,
			Top:    f.Box.Top,
			Width:  f.Box.Width,
			Height: f.Box.Height,
		}
	}
	if person != nil {
		resp.Person = &PersonRef{ID: person.ID, Name: person.Name}
	}
	if match != nil {
		resp.Match = &MatchResponse{
			PersonID:   match.PersonID,
			PersonName: match.PersonName,
			Similarity: match.Similarity,
			Level:      string(match.Level),
		}
	}
	return resp
}
