package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/auth"
	"github.com/Jeff496/PicAI-sub001/internal/faces"
	"github.com/Jeff496/PicAI-sub001/pkg/dto"
)

type PersonHandler struct {
	db  faces.Store
	svc *faces.Service
}

func NewPersonHandler(db faces.Store, svc *faces.Service) *PersonHandler {
	return &PersonHandler{db: db, svc: svc}
}

// List returns the account's persons. An account without a collection has
// no persons yet.
func (h *PersonHandler) List(c *gin.Context) {
	collection, err := h.db.GetCollectionByAccount(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.PersonResponse, 0)
	if collection != nil {
		persons, err := h.db.ListPersonsByCollection(c.Request.Context(), collection.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for _, p := range persons {
			resp = append(resp, dto.PersonResponse{
				ID:        p.ID,
				Name:      p.Name,
				CreatedAt: p.CreatedAt.Format(timeFormat),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"persons": resp, "total": len(resp)})
}

// Delete removes a person, unlinking their faces and removing their remote
// index entries.
func (h *PersonHandler) Delete(c *gin.Context) {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}

	collection, err := h.db.GetCollection(c.Request.Context(), person.CollectionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if collection == nil || collection.AccountID != auth.AccountID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "person belongs to another account"})
		return
	}

	if err := h.svc.DeletePerson(c.Request.Context(), personID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
