package handlers

import (
	"net/http"

	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/crewrecords/staff-records-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RelationshipHandler handles link, unlink and merge HTTP requests
type RelationshipHandler struct {
	relationships *services.RelationshipService
	merges        *services.MergeService
}

// NewRelationshipHandler creates a new RelationshipHandler
func NewRelationshipHandler(relationships *services.RelationshipService, merges *services.MergeService) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships, merges: merges}
}

// LinkPerson connects two person records
// POST /api/v1/persons/:id/links
func (h *RelationshipHandler) LinkPerson(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input models.LinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	rel, err := h.relationships.Link(
		operator.OrganisationID,
		personID,
		input.LinkedPersonID,
		input.RelationshipType,
		input.Notes,
		auditContextFrom(c),
	)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rel)
}

// UnlinkPerson removes the edge between two persons, in either direction
// DELETE /api/v1/persons/:id/links/:linkedId
func (h *RelationshipHandler) UnlinkPerson(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	linkedID, ok := pathUUID(c, "linkedId")
	if !ok {
		return
	}

	removed, err := h.relationships.Unlink(operator.OrganisationID, personID, linkedID, auditContextFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}

// ListLinks returns the edges touching a person together with the ids of
// directly linked persons
// GET /api/v1/persons/:id/links
func (h *RelationshipHandler) ListLinks(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	relationships, err := h.relationships.ListRelationships(personID, operator.OrganisationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	linkedIDs := make([]uuid.UUID, 0, len(relationships))
	for _, rel := range relationships {
		linkedIDs = append(linkedIDs, rel.OtherEnd(personID))
	}

	c.JSON(http.StatusOK, gin.H{
		"relationships":     relationships,
		"linked_person_ids": linkedIDs,
	})
}

// MergeRequest identifies the record merged away into the path person
type MergeRequest struct {
	SourcePersonID uuid.UUID `json:"source_person_id" binding:"required"`
}

// MergePerson consolidates the source person into the path person and
// deletes the source
// POST /api/v1/persons/:id/merge
func (h *RelationshipHandler) MergePerson(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	merged, err := h.merges.Merge(operator.OrganisationID, targetID, req.SourcePersonID, auditContextFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Records merged",
		"person":  merged,
	})
}
