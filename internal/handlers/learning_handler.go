package handlers

import (
	"net/http"

	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/crewrecords/staff-records-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// LearningHandler handles learning/qualification record HTTP requests
type LearningHandler struct {
	learning *services.LearningService
}

// NewLearningHandler creates a new LearningHandler
func NewLearningHandler(learning *services.LearningService) *LearningHandler {
	return &LearningHandler{learning: learning}
}

// GetLearningRecords returns the aggregated learning history of a person and
// its linked set
// GET /api/v1/persons/:id/learning-records
func (h *LearningHandler) GetLearningRecords(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var filter models.LearningRecordFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	records, err := h.learning.LearningRecordsFor(personID, operator.OrganisationID, &filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// CreateLearningRecord records a learning fact against one person
// POST /api/v1/learning-records
func (h *LearningHandler) CreateLearningRecord(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}

	var input models.CreateLearningRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	record, err := h.learning.CreateLearningRecord(operator.OrganisationID, &input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}
