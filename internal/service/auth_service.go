package service

import (
	"strings"

	"tourbook/config"
	"tourbook/internal/auth"
	"tourbook/internal/domain"
	"tourbook/internal/models"
	"tourbook/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService struct {
	cfg   *config.Config
	store *repository.Store
	log   *logrus.Logger
}

func NewAuthService(cfg *config.Config, store *repository.Store, log *logrus.Logger) *AuthService {
	return &AuthService{cfg: cfg, store: store, log: log}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register creates a CUSTOMER account and returns it with an access token.
func (s *AuthService) Register(in RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", domain.Validation("INVALID_EMAIL", "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", domain.Validation("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, "", domain.Validation("INVALID_NAME", "name is required")
	}
	_, err := s.store.Users.GetByEmail(email)
	if err == nil {
		return nil, "", domain.ErrEmailExists
	}
	if !repository.IsNotFound(err) {
		return nil, "", domain.Internal("USER_LOOKUP_FAILED", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", domain.Internal("PASSWORD_HASH_FAILED", err)
	}
	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		Phone:        in.Phone,
	}
	if err := s.store.Users.Create(u); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, "", domain.ErrEmailExists
		}
		return nil, "", domain.Internal("USER_CREATE_FAILED", err)
	}
	token, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", domain.Internal("TOKEN_FAILED", err)
	}
	s.log.WithField("user_id", u.ID).Info("user registered")
	return u, token, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	u, err := s.store.Users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", domain.Internal("USER_LOOKUP_FAILED", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	token, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", domain.Internal("TOKEN_FAILED", err)
	}
	return u, token, nil
}

// CreateStaff lets an admin create AGENT or ADMIN accounts.
func (s *AuthService) CreateStaff(actor Actor, in RegisterInput, role string) (*models.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if role != domain.RoleAgent && role != domain.RoleAdmin {
		return nil, domain.Validation("INVALID_ROLE", "role must be AGENT or ADMIN")
	}
	u, _, err := s.Register(in)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.store.Users.Update(u); err != nil {
		return nil, domain.Internal("USER_UPDATE_FAILED", err)
	}
	return u, nil
}
