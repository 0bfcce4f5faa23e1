package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/middleware"
	"tourbook/internal/repository"
	"tourbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindCapacity:
		return http.StatusConflict
	case domain.KindStateTransition:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindGateway:
		return http.StatusBadGateway
	case domain.KindSignature:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Internal details only leave the
// process in debug mode.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Internal("INTERNAL", err)
	}
	status := statusFor(de.Kind)
	msg := de.Message
	if status >= http.StatusInternalServerError || de.Kind == domain.KindGateway {
		log.WithError(err).WithFields(logrus.Fields{
			"code":       de.Code,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Error("request failed")
		if gin.IsDebugging() && de.Err != nil {
			msg = de.Message + ": " + de.Err.Error()
		}
	}
	_ = c.Error(err)
	body := gin.H{"error": msg, "code": de.Code}
	if de.Retryable() {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "BAD_REQUEST"})
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{UserID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

func queryUint(c *gin.Context, name string) (*uint, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	id := uint(n)
	return &id, true
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	badRequest(c, "invalid "+name+" (use YYYY-MM-DD or RFC 3339)")
	return nil, false
}

func paging(c *gin.Context) (page, limit int, ok bool) {
	if page, ok = queryInt(c, "page"); !ok {
		return 0, 0, false
	}
	if limit, ok = queryInt(c, "limit"); !ok {
		return 0, 0, false
	}
	return page, limit, true
}

func listResponse(c *gin.Context, key string, items interface{}, total int64, page, limit int) {
	if page < 1 {
		page = 1
	}
	_, size := repository.Page(page, limit)
	c.JSON(http.StatusOK, gin.H{key: items, "total": total, "page": page, "limit": size})
}
