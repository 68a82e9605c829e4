package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/teris-io/shortid"
	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/gate"
	"github.com/pingquote/pingquote/internal/mailer"
	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/validation"
)

// InviteService manages organization invites: creation by owners and
// admins, public validation, and redemption during signup.
type InviteService struct {
	DB      *gorm.DB
	Gate    *gate.Gate[uint]
	Mailer  mailer.Mailer
	BaseURL string
	Now     func() time.Time
}

func NewInviteService(db *gorm.DB, g *gate.Gate[uint], m mailer.Mailer, baseURL string) *InviteService {
	return &InviteService{DB: db, Gate: g, Mailer: m, BaseURL: baseURL, Now: time.Now}
}

type InviteInput struct {
	OrganizationID uint       `json:"organizationId"`
	Email          string     `json:"email"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	MaxUses        int        `json:"maxUses"`
}

// Create issues a new invite code for the organization. Only owners
// and admins may invite; the invite email is sent best-effort.
func (s *InviteService) Create(ctx context.Context, callerID uint, in InviteInput) (*models.OrganizationInvite, error) {
	if err := s.Gate.Authorize(ctx, callerID, gate.ActionCreate, "invite", in.OrganizationID); err != nil {
		return nil, ErrUnauthorized
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	var v validation.Violations
	validation.Required("email", in.Email, &v)
	validation.Email("email", in.Email, &v)
	if in.MaxUses < 0 {
		v = append(v, validation.Violation{Field: "maxUses", Rule: "must_not_be_negative"})
	}
	if err := firstViolation(v); err != nil {
		return nil, err
	}
	if in.MaxUses == 0 {
		in.MaxUses = 1
	}

	code, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	invite := models.OrganizationInvite{
		OrganizationID: in.OrganizationID,
		Code:           code,
		Email:          in.Email,
		ExpiresAt:      in.ExpiresAt,
		MaxUses:        in.MaxUses,
		CreatedBy:      callerID,
		CreatedAt:      s.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	s.sendInviteEmail(ctx, callerID, &invite)
	return &invite, nil
}

// sendInviteEmail is best-effort: the invite exists and its code can
// still be shared by hand if the relay is down.
func (s *InviteService) sendInviteEmail(ctx context.Context, callerID uint, invite *models.OrganizationInvite) {
	if s.Mailer == nil || invite.Email == "" {
		return
	}
	var org models.Organization
	if err := s.DB.WithContext(ctx).First(&org, invite.OrganizationID).Error; err != nil {
		log.Printf("invite email: load org %d: %v", invite.OrganizationID, err)
		return
	}
	var inviter models.User
	if err := s.DB.WithContext(ctx).First(&inviter, callerID).Error; err != nil {
		log.Printf("invite email: load inviter %d: %v", callerID, err)
		return
	}

	msg := mailer.TeamInvite(mailer.TeamInviteData{
		InvitedEmail:     invite.Email,
		OrganizationName: org.Name,
		InviterName:      inviter.DisplayName(),
		InviteURL:        s.BaseURL + "/signup?invite=" + invite.Code,
	})
	msg.To = invite.Email

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.Mailer.Send(sendCtx, msg); err != nil {
		log.Printf("invite email: send to %s failed: %v", invite.Email, err)
	}
}

// InviteListing is an invite row joined with its organization name for
// the team settings page.
type InviteListing struct {
	models.OrganizationInvite
	OrganizationName string `json:"organizationName"`
}

// List returns pending invites across every organization where the
// caller can manage invites.
func (s *InviteService) List(ctx context.Context, callerID uint) ([]InviteListing, error) {
	if callerID == 0 {
		return nil, ErrUnauthorized
	}
	var orgIDs []uint
	err := s.DB.WithContext(ctx).Model(&models.OrganizationMember{}).
		Where("user_id = ? AND role IN ?", callerID, []string{models.RoleOwner, models.RoleAdmin}).
		Pluck("organization_id", &orgIDs).Error
	if err != nil {
		return nil, err
	}
	if len(orgIDs) == 0 {
		return []InviteListing{}, nil
	}

	var invites []models.OrganizationInvite
	err = s.DB.WithContext(ctx).
		Where("organization_id IN ?", orgIDs).
		Preload("Organization").
		Order("created_at desc").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}

	out := make([]InviteListing, 0, len(invites))
	for _, inv := range invites {
		out = append(out, InviteListing{OrganizationInvite: inv, OrganizationName: inv.Organization.Name})
	}
	return out, nil
}

// InvitePreview is what the signup page may learn about an invite
// before the visitor has an account.
type InvitePreview struct {
	Code             string `json:"code"`
	Email            string `json:"email,omitempty"`
	OrganizationName string `json:"organizationName"`
}

// Validate checks an invite code for the public signup page. Expired
// and exhausted invites are reported distinctly so the page can say
// why the code no longer works.
func (s *InviteService) Validate(ctx context.Context, code string) (*InvitePreview, error) {
	var invite models.OrganizationInvite
	err := s.DB.WithContext(ctx).
		Where("code = ?", code).
		Preload("Organization").
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if invite.Expired(s.Now()) {
		return nil, ErrInviteExpired
	}
	if invite.Exhausted() {
		return nil, ErrInviteExhausted
	}
	return &InvitePreview{
		Code:             invite.Code,
		Email:            invite.Email,
		OrganizationName: invite.Organization.Name,
	}, nil
}

// Redeem consumes one use of the invite and adds the user as a member,
// inside the caller's transaction (signup runs it next to user
// creation so a failed redemption rolls the account back too).
//
// The use is claimed with a conditional increment: two concurrent
// signups racing for the last slot both pass the read check, but only
// the one whose UPDATE matches a row gets in.
func (s *InviteService) Redeem(tx *gorm.DB, code, email string, userID uint, now time.Time) (*models.OrganizationInvite, error) {
	var invite models.OrganizationInvite
	err := tx.Where("code = ?", code).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if invite.Expired(now) {
		return nil, ErrInviteExpired
	}
	if invite.Email != "" && !strings.EqualFold(invite.Email, email) {
		return nil, ErrInviteEmailMismatch
	}

	claim := tx.Model(&models.OrganizationInvite{}).
		Where("id = ? AND (max_uses <= 0 OR used_count < max_uses)", invite.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, ErrInviteExhausted
	}
	invite.UsedCount++

	member := models.OrganizationMember{
		OrganizationID: invite.OrganizationID,
		UserID:         userID,
		Role:           models.RoleMember,
		JoinedAt:       now,
	}
	if err := tx.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}

	// A fully used invite is removed rather than left around as a
	// dead code that validates to "exhausted" forever.
	if invite.MaxUses > 0 && invite.UsedCount >= invite.MaxUses {
		if err := tx.Delete(&models.OrganizationInvite{}, invite.ID).Error; err != nil {
			return nil, err
		}
	}
	return &invite, nil
}

// Delete revokes a pending invite.
func (s *InviteService) Delete(ctx context.Context, callerID uint, inviteID uint) error {
	var invite models.OrganizationInvite
	err := s.DB.WithContext(ctx).First(&invite, inviteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Gate.Authorize(ctx, callerID, gate.ActionDelete, "invite", &invite); err != nil {
		return ErrUnauthorized
	}
	return s.DB.WithContext(ctx).Delete(&models.OrganizationInvite{}, invite.ID).Error
}
