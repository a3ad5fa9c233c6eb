package models

import (
	"time"

	"github.com/google/uuid"
)

type FaceEventType string

const (
	FaceEventDetected      FaceEventType = "face_detected"
	FaceEventTagged        FaceEventType = "face_tagged"
	FaceEventUntagged      FaceEventType = "face_untagged"
	FaceEventPersonDeleted FaceEventType = "person_deleted"
)

// FaceEvent is the message published to NATS whenever the face pipeline
// changes state. The API process consumes these and pushes them to
// WebSocket clients.
type FaceEvent struct {
	Type       FaceEventType `json:"type"`
	AccountID  uuid.UUID     `json:"account_id"`
	PhotoID    *uuid.UUID    `json:"photo_id,omitempty"`
	FaceID     *uuid.UUID    `json:"face_id,omitempty"`
	PersonID   *uuid.UUID    `json:"person_id,omitempty"`
	PersonName string        `json:"person_name,omitempty"`
	FaceCount  int           `json:"face_count,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
