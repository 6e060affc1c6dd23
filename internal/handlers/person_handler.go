package handlers

import (
	"errors"
	"net/http"

	"github.com/crewrecords/staff-records-backend/internal/middleware"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/crewrecords/staff-records-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PersonHandler handles person-record HTTP requests
type PersonHandler struct {
	identity *services.IdentityService
	matcher  *services.MatcherService
}

// NewPersonHandler creates a new PersonHandler
func NewPersonHandler(identity *services.IdentityService, matcher *services.MatcherService) *PersonHandler {
	return &PersonHandler{identity: identity, matcher: matcher}
}

// requireOperator fetches the operator context or writes a 401
func requireOperator(c *gin.Context) (middleware.OperatorContext, bool) {
	operator, exists := middleware.GetOperatorContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Operator context not found",
		})
	}
	return operator, exists
}

// pathUUID parses a UUID path parameter or writes a 400
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid " + name + " parameter",
		})
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps the core's error taxonomy onto HTTP statuses:
// invariant violations are routine rejections, everything else is an
// infrastructure failure.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPersonNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Person not found",
		})
	case errors.Is(err, services.ErrSelfLink),
		errors.Is(err, services.ErrAlreadyLinked),
		errors.Is(err, services.ErrSelfMerge):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "invariant_violation",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Operation failed",
		})
	}
}

// CreateStaff creates a staff person, or updates the existing one when the
// supplied identity already exists in the organisation
// POST /api/v1/persons
func (h *PersonHandler) CreateStaff(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}

	var input models.CreateStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	person, created, err := h.identity.CreateStaff(operator.OrganisationID, &input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"person":  person,
		"created": created,
	})
}

// GetPerson retrieves a person within the operator's organisation
// GET /api/v1/persons/:id
func (h *PersonHandler) GetPerson(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	person, err := h.identity.GetPerson(personID, operator.OrganisationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if person == nil {
		writeServiceError(c, services.ErrPersonNotFound)
		return
	}

	c.JSON(http.StatusOK, person)
}

// GetProfile retrieves a person's employment profile
// GET /api/v1/persons/:id/profile
func (h *PersonHandler) GetProfile(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.identity.GetProfile(personID, operator.OrganisationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Employment profile not found",
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdatePerson partially updates a person and, when profile fields are
// supplied, its employment profile
// PATCH /api/v1/persons/:id
func (h *PersonHandler) UpdatePerson(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input models.UpdateStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	person, err := h.identity.UpdateStaff(personID, operator.OrganisationID, &input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if person == nil {
		writeServiceError(c, services.ErrPersonNotFound)
		return
	}

	c.JSON(http.StatusOK, person)
}

// DeactivatePerson soft-deactivates a person record
// DELETE /api/v1/persons/:id
func (h *PersonHandler) DeactivatePerson(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}
	personID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	deactivated, err := h.identity.Deactivate(personID, operator.OrganisationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !deactivated {
		writeServiceError(c, services.ErrPersonNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Person deactivated"})
}

// FindMatches returns scored duplicate candidates for the supplied signals
// GET /api/v1/persons/matches
func (h *PersonHandler) FindMatches(c *gin.Context) {
	operator, ok := requireOperator(c)
	if !ok {
		return
	}

	var query models.MatchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	candidates, err := h.matcher.FindPotentialMatches(operator.OrganisationID, &query)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": candidates,
		"count":   len(candidates),
	})
}
