// Package policy wires the gate to this app's data model: who may touch
// a quote, and who may administer an organization's invites.
package policy

import (
	"context"

	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/gate"
	"github.com/pingquote/pingquote/internal/models"
)

// QuotePolicy allows the direct owner, or any member of the quote's
// organization when one is set. List/create pass with no resource.
type QuotePolicy struct {
	DB *gorm.DB
}

func (p *QuotePolicy) Can(ctx context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	q, ok := resource.(*models.Quote)
	if !ok {
		// Unknown resource types are denied rather than silently allowed.
		return false
	}
	if q.UserID == userID {
		return true
	}
	if q.OrganizationID == nil {
		return false
	}
	var count int64
	err := p.DB.WithContext(ctx).Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", *q.OrganizationID, userID).
		Count(&count).Error
	return err == nil && count > 0
}

// InvitePolicy restricts invite administration to owners and admins of
// the relevant organization. The resource is either an invite or a bare
// organization id (for creation, before any invite exists).
type InvitePolicy struct {
	DB *gorm.DB
}

func (p *InvitePolicy) Can(ctx context.Context, userID uint, _ gate.Action, resource any) bool {
	var orgID uint
	switch r := resource.(type) {
	case *models.OrganizationInvite:
		orgID = r.OrganizationID
	case uint:
		orgID = r
	default:
		return false
	}
	var member models.OrganizationMember
	err := p.DB.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	if err != nil {
		return false
	}
	return member.Role == models.RoleOwner || member.Role == models.RoleAdmin
}

// NewGate builds the app gate with all policies registered.
func NewGate(db *gorm.DB) *gate.Gate[uint] {
	g := gate.NewGate[uint]()
	g.Register("quote", &QuotePolicy{DB: db})
	g.Register("invite", &InvitePolicy{DB: db})
	return g
}
