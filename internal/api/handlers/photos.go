package handlers

import (
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/auth"
	"github.com/Jeff496/PicAI-sub001/internal/faces"
	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/pkg/dto"
)

type PhotoHandler struct {
	db     faces.Store
	images ImageStore
	svc    *faces.Service
}

func NewPhotoHandler(db faces.Store, images ImageStore, svc *faces.Service) *PhotoHandler {
	return &PhotoHandler{db: db, images: images, svc: svc}
}

// Upload accepts a multipart image, stores the bytes and creates the Photo
// row. The bytes go in first so a crash cannot leave a row without an
// object behind it.
func (h *PhotoHandler) Upload(c *gin.Context) {
	accountID := auth.AccountID(c)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	objectKey := "photos/" + accountID.String() + "/" + uuid.New().String() + path.Ext(header.Filename)
	if err := h.images.PutImage(c.Request.Context(), objectKey, imageData, header.Header.Get("Content-Type")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
		return
	}

	photo := &models.Photo{
		AccountID: accountID,
		ObjectKey: objectKey,
		FileName:  header.Filename,
	}
	if err := h.db.CreatePhoto(c.Request.Context(), photo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.PhotoResponse{
		ID:        photo.ID,
		FileName:  photo.FileName,
		CreatedAt: photo.CreatedAt.Format(timeFormat),
	})
}

// Delete removes a photo, its faces, and best-effort the remote index
// entries and stored bytes.
func (h *PhotoHandler) Delete(c *gin.Context) {
	photoID, ok := h.ownedPhoto(c)
	if !ok {
		return
	}

	if err := h.svc.DeletePhoto(c.Request.Context(), photoID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Detect runs face detection for the photo and returns the detected faces
// with match suggestions.
func (h *PhotoHandler) Detect(c *gin.Context) {
	photoID, ok := h.ownedPhoto(c)
	if !ok {
		return
	}

	summaries, err := h.svc.DetectFaces(c.Request.Context(), photoID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.FaceResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, dto.NewFaceResponse(&s.Face, nil, s.Match))
	}

	c.JSON(http.StatusOK, gin.H{"faces": resp, "total": len(resp)})
}

// ListFaces returns all faces of a photo, tagged ones with their person.
func (h *PhotoHandler) ListFaces(c *gin.Context) {
	photoID, ok := h.ownedPhoto(c)
	if !ok {
		return
	}

	photoFaces, err := h.db.ListFacesByPhoto(c.Request.Context(), photoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FaceResponse, 0, len(photoFaces))
	for _, f := range photoFaces {
		var person *models.Person
		if f.PersonID != nil {
			person, err = h.db.GetPerson(c.Request.Context(), *f.PersonID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		resp = append(resp, dto.NewFaceResponse(&f, person, nil))
	}

	c.JSON(http.StatusOK, gin.H{"faces": resp, "total": len(resp)})
}

// BulkDetect runs detection across many photos. Per-item failures are part
// of the response body; the request itself succeeds.
func (h *PhotoHandler) BulkDetect(c *gin.Context) {
	var req dto.BulkDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.BulkDetect(c.Request.Context(), auth.AccountID(c), req.PhotoIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]dto.BulkItemResponse, 0, len(result.Results))
	for _, r := range result.Results {
		items = append(items, dto.BulkItemResponse{
			PhotoID:       r.PhotoID,
			Success:       r.Success,
			FacesDetected: r.FacesDetected,
			Error:         r.Error,
		})
	}

	c.JSON(http.StatusOK, dto.BulkDetectResponse{Results: items, Summary: result.Summary})
}

// ownedPhoto parses the photo id and enforces account ownership.
func (h *PhotoHandler) ownedPhoto(c *gin.Context) (uuid.UUID, bool) {
	photoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo id"})
		return uuid.Nil, false
	}

	photo, err := h.db.GetPhoto(c.Request.Context(), photoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	if photo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return uuid.Nil, false
	}
	if photo.AccountID != auth.AccountID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "photo belongs to another account"})
		return uuid.Nil, false
	}
	return photoID, true
}
