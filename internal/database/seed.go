package database

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tourbook/config"
	"tourbook/internal/domain"
	"tourbook/internal/models"
)

// SeedAdmin creates the configured administrator when no user with that email
// exists. Without ADMIN_PASSWORD nothing is seeded.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig, log *logrus.Logger) {
	if cfg.Email == "" || cfg.Password == "" {
		log.Info("admin seed skipped: ADMIN_PASSWORD not set")
		return
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", cfg.Email).Count(&count).Error; err != nil {
		log.WithError(err).Error("admin seed: lookup failed")
		return
	}
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("admin seed: hash failed")
		return
	}
	admin := &models.User{Name: cfg.Name, Email: cfg.Email, PasswordHash: string(hash), Role: domain.RoleAdmin}
	if err := db.Create(admin).Error; err != nil {
		log.WithError(err).Error("admin seed: create failed")
		return
	}
	log.WithField("email", cfg.Email).Info("admin user seeded")
}
