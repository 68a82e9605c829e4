package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/validation"
)

// AccountService handles signup and login. Signup is transactional:
// the new user, their organization membership (via invite) or their
// new organization all commit together or not at all.
type AccountService struct {
	DB      *gorm.DB
	Invites *InviteService
	Now     func() time.Time
}

func NewAccountService(db *gorm.DB, invites *InviteService) *AccountService {
	return &AccountService{DB: db, Invites: invites, Now: time.Now}
}

type SignupInput struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	CompanyName      string `json:"companyName"`
	OrganizationName string `json:"organizationName"`
	InviteCode       string `json:"inviteCode"`
}

func (in *SignupInput) normalize() {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)
	in.InviteCode = strings.TrimSpace(in.InviteCode)
}

func (in *SignupInput) validate() error {
	var v validation.Violations
	validation.Required("email", in.Email, &v)
	validation.Email("email", in.Email, &v)
	validation.MinLen("password", in.Password, 8, &v)
	validation.Required("name", in.Name, &v)
	if in.InviteCode == "" && in.OrganizationName == "" {
		v = append(v, validation.Violation{Field: "organizationName", Rule: "required"})
	}
	return firstViolation(v)
}

// Signup creates the account. With an invite code the user joins that
// organization as a member; otherwise a fresh organization is created
// with the user as its owner.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.Now()
	user := models.User{
		Email:       in.Email,
		Password:    string(hash),
		Name:        in.Name,
		CompanyName: in.CompanyName,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			// Two racing signups can both pass the count above; the
			// loser hits the unique index on email.
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("create user: %w", err)
		}
		if in.InviteCode != "" {
			_, err := s.Invites.Redeem(tx, in.InviteCode, in.Email, user.ID, now)
			return err
		}
		org := models.Organization{Name: in.OrganizationName}
		if err := tx.Create(&org).Error; err != nil {
			return fmt.Errorf("create organization: %w", err)
		}
		member := models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Role:           models.RoleOwner,
			JoinedAt:       now,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// isUniqueViolation recognizes a unique-index error from either
// backing driver (postgres in production, sqlite in tests).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// Login verifies credentials. Unknown email and wrong password return
// the same error.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return &user, nil
}
