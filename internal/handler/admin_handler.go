package handler

import (
	"net/http"

	"tourbook/internal/domain"
	"tourbook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves the read-only back-office views.
type AdminHandler struct {
	store *repository.Store
	log   *logrus.Logger
}

func NewAdminHandler(store *repository.Store, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{store: store, log: log}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit, ok := paging(c)
	if !ok {
		return
	}
	role := c.Query("role")
	if role != "" && role != domain.RoleAdmin && role != domain.RoleAgent && role != domain.RoleCustomer {
		badRequest(c, "invalid role")
		return
	}
	users, total, err := h.store.WithContext(c.Request.Context()).Users.List(c.Query("search"), role, page, limit)
	if err != nil {
		respondError(c, h.log, domain.Internal("USER_LIST_FAILED", err))
		return
	}
	listResponse(c, "users", users, total, page, limit)
}

// GetUser handles GET /admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	u, err := h.store.WithContext(c.Request.Context()).Users.GetByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, h.log, domain.ErrUserNotFound)
			return
		}
		respondError(c, h.log, domain.Internal("USER_LOOKUP_FAILED", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// AuditTrail handles GET /admin/audit-logs?resource=payment&resource_id=12.
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	resource, id := c.Query("resource"), c.Query("resource_id")
	if resource == "" || id == "" {
		badRequest(c, "resource and resource_id are required")
		return
	}
	logs, err := h.store.WithContext(c.Request.Context()).AuditLogs.ListByResource(resource, id)
	if err != nil {
		respondError(c, h.log, domain.Internal("AUDIT_LIST_FAILED", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
