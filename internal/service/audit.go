package service

import (
	"encoding/json"
	"strconv"

	"tourbook/internal/models"
	"tourbook/internal/repository"
)

// RequestMeta carries caller details recorded in the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func auditEntry(actor Actor, meta RequestMeta, action, resource string, resourceID uint, details map[string]interface{}) *models.AuditLog {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: strconv.FormatUint(uint64(resourceID), 10),
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if actor.UserID != 0 {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if details != nil {
		b, _ := json.Marshal(details)
		entry.Metadata = string(b)
	}
	return entry
}

func writeAudit(tx *repository.Store, entry *models.AuditLog) error {
	return tx.AuditLogs.Create(entry)
}
