package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/storage"
	"github.com/pingquote/pingquote/internal/validation"
)

// ProfileService manages the sender profile shown on quotes and the
// uploaded company logo.
type ProfileService struct {
	DB    *gorm.DB
	Store storage.ObjectStore
}

func NewProfileService(db *gorm.DB, store storage.ObjectStore) *ProfileService {
	return &ProfileService{DB: db, Store: store}
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

type ProfileInput struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
}

func (s *ProfileService) Update(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CompanyName = strings.TrimSpace(in.CompanyName)

	var v validation.Violations
	validation.Required("name", in.Name, &v)
	if err := firstViolation(v); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"name": in.Name, "company_name": in.CompanyName}).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Allowed logo content types and the cap on upload size.
const MaxLogoBytes = 2 << 20

var logoTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// SetLogo stores the uploaded image and points the profile at it. Any
// previous logo object is removed best-effort.
func (s *ProfileService) SetLogo(ctx context.Context, userID uint, r io.Reader, size int64, contentType string) (string, error) {
	if size > MaxLogoBytes {
		return "", &ValidationError{Field: "logo", Rule: "too_large"}
	}
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", &ValidationError{Field: "logo", Rule: "invalid_type"}
	}
	ext, ok := logoTypes[base]
	if !ok {
		return "", &ValidationError{Field: "logo", Rule: "invalid_type"}
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("logos/%d-%s%s", userID, uuid.NewString(), ext)
	url, err := s.Store.Put(ctx, key, r, size, base)
	if err != nil {
		return "", fmt.Errorf("store logo: %w", err)
	}

	err = s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("logo_url", url).Error
	if err != nil {
		return "", err
	}

	if old := user.LogoURL; old != "" {
		s.removeObject(ctx, old)
	}
	return url, nil
}

// RemoveLogo clears the profile logo and deletes the stored object.
func (s *ProfileService) RemoveLogo(ctx context.Context, userID uint) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.LogoURL == "" {
		return nil
	}
	err = s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("logo_url", "").Error
	if err != nil {
		return err
	}
	s.removeObject(ctx, user.LogoURL)
	return nil
}

func (s *ProfileService) removeObject(ctx context.Context, url string) {
	key := storage.KeyFromURL(url)
	// Keep the logos/ prefix when the URL carries it.
	if dir := path.Base(path.Dir(url)); dir == "logos" {
		key = "logos/" + key
	}
	_ = s.Store.Remove(ctx, key)
}

// OrganizationOverview is the team page payload: the caller's
// organizations with member rosters.
type OrganizationOverview struct {
	ID      uint             `json:"id"`
	Name    string           `json:"name"`
	Role    string           `json:"role"`
	Members []MemberOverview `json:"members"`
}

type MemberOverview struct {
	UserID   uint      `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Organizations lists every organization the user belongs to, with
// members, oldest membership first.
func (s *ProfileService) Organizations(ctx context.Context, userID uint) ([]OrganizationOverview, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	var own []models.OrganizationMember
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Organization").
		Order("joined_at asc").
		Find(&own).Error
	if err != nil {
		return nil, err
	}

	out := make([]OrganizationOverview, 0, len(own))
	for _, m := range own {
		var roster []models.OrganizationMember
		err := s.DB.WithContext(ctx).
			Where("organization_id = ?", m.OrganizationID).
			Preload("User").
			Order("joined_at asc").
			Find(&roster).Error
		if err != nil {
			return nil, err
		}
		ov := OrganizationOverview{ID: m.OrganizationID, Name: m.Organization.Name, Role: m.Role}
		for _, r := range roster {
			ov.Members = append(ov.Members, MemberOverview{
				UserID:   r.UserID,
				Name:     r.User.Name,
				Email:    r.User.Email,
				Role:     r.Role,
				JoinedAt: r.JoinedAt,
			})
		}
		out = append(out, ov)
	}
	return out, nil
}
