package handlers

import (
	"github.com/crewrecords/staff-records-backend/internal/middleware"
	"github.com/crewrecords/staff-records-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
)

// auditContextFrom builds the operator attribution passed to audited core
// operations from the request: who, from which address, on what device.
func auditContextFrom(c *gin.Context) *services.AuditContext {
	audit := &services.AuditContext{}

	if operator, ok := middleware.GetOperatorContext(c); ok {
		userID := operator.UserID
		audit.PerformedBy = &userID
	}

	if ip := c.ClientIP(); ip != "" {
		audit.IPAddress = &ip
	}

	if rawUA := c.Request.UserAgent(); rawUA != "" {
		ua := user_agent.New(rawUA)
		device := "desktop"
		if ua.Mobile() {
			device = "mobile"
		} else if ua.Bot() {
			device = "bot"
		}
		audit.DeviceType = &device
	}

	return audit
}
