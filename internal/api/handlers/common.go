package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jeff496/PicAI-sub001/internal/faces"
)

// ImageStore is the subset of the object store handlers need directly
// (uploads); everything else goes through the faces service.
type ImageStore interface {
	PutImage(ctx context.Context, key string, data []byte, contentType string) error
}

const timeFormat = "2006-01-02T15:04:05Z"

// respondError maps pipeline errors onto HTTP statuses. Anything without a
// sentinel mapping, remote-service failures included, surfaces as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, faces.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, faces.ErrInvalidTag), errors.Is(err, faces.ErrTooManyPhotos):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
