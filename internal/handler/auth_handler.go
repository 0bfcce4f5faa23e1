package handler

import (
	"net/http"
	"strconv"

	"tourbook/internal/domain"
	"tourbook/internal/middleware"
	"tourbook/internal/models"
	"tourbook/internal/repository"
	"tourbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	svc   *service.AuthService
	store *repository.Store
	log   *logrus.Logger
}

func NewAuthHandler(svc *service.AuthService, store *repository.Store, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, store: store, log: log}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateStaffRequest struct {
	RegisterRequest
	Role string `json:"role" binding:"required,oneof=AGENT ADMIN"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, access, err := h.svc.Register(service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.auditLog(u.ID, u.ID, "register", c)
	c.JSON(http.StatusCreated, gin.H{"user": u, "access_token": access})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, access, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.auditLog(u.ID, u.ID, "login", c)
	c.JSON(http.StatusOK, gin.H{"user": u, "access_token": access})
}

// CreateStaff is the admin endpoint for AGENT and ADMIN accounts.
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	in := service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone}
	u, err := h.svc.CreateStaff(actorFrom(c), in, req.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.auditLog(middleware.GetUserID(c), u.ID, "staff.created", c)
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.store.WithContext(c.Request.Context()).Users.GetByID(middleware.GetUserID(c))
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

func (h *AuthHandler) auditLog(actorID, subjectID uint, action string, c *gin.Context) {
	err := h.store.WithContext(c.Request.Context()).AuditLogs.Create(&models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "auth",
		ResourceID: strconv.FormatUint(uint64(subjectID), 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		h.log.WithError(err).WithField("action", action).Warn("audit log write failed")
	}
}
