package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/auth"
	"github.com/Jeff496/PicAI-sub001/internal/faces"
	"github.com/Jeff496/PicAI-sub001/pkg/dto"
)

type FaceHandler struct {
	db  faces.Store
	svc *faces.Service
}

func NewFaceHandler(db faces.Store, svc *faces.Service) *FaceHandler {
	return &FaceHandler{db: db, svc: svc}
}

// Tag binds a face to an existing person (person_id) or a new one
// (person_name), indexing the face remotely if needed.
func (h *FaceHandler) Tag(c *gin.Context) {
	faceID, ok := h.ownedFace(c)
	if !ok {
		return
	}

	var req dto.TagFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.TagFace(c.Request.Context(), faceID, faces.TagRequest{
		PersonID:   req.PersonID,
		PersonName: req.PersonName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TagFaceResponse{
		Face: dto.NewFaceResponse(&result.Face, &result.Person, nil),
		Person: dto.PersonResponse{
			ID:        result.Person.ID,
			Name:      result.Person.Name,
			CreatedAt: result.Person.CreatedAt.Format(timeFormat),
		},
	})
}

// Untag removes the person link and the remote index entry; the detected
// face stays.
func (h *FaceHandler) Untag(c *gin.Context) {
	faceID, ok := h.ownedFace(c)
	if !ok {
		return
	}

	face, err := h.svc.UntagFace(c.Request.Context(), faceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"face": dto.NewFaceResponse(face, nil, nil)})
}

// ownedFace parses the face id and enforces account ownership through the
// parent photo.
func (h *FaceHandler) ownedFace(c *gin.Context) (uuid.UUID, bool) {
	faceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return uuid.Nil, false
	}

	face, err := h.db.GetFace(c.Request.Context(), faceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	if face == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "face not found"})
		return uuid.Nil, false
	}

	photo, err := h.db.GetPhoto(c.Request.Context(), face.PhotoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	if photo == nil || photo.AccountID != auth.AccountID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "face belongs to another account"})
		return uuid.Nil, false
	}
	return faceID, true
}
