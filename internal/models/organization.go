package models

import "time"

// Organization & membership models
type Organization struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null;index" json:"name"`
	LogoURL   string `json:"logoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	Members []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"-"`
	Invites []OrganizationInvite `gorm:"foreignKey:OrganizationID" json:"-"`
}

type OrganizationMember struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrganizationID uint         `gorm:"not null;index;uniqueIndex:idx_org_user" json:"organizationId"`
	Organization   Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	UserID         uint         `gorm:"not null;index;uniqueIndex:idx_org_user" json:"userId"`
	User           User         `gorm:"foreignKey:UserID" json:"-"`
	Role           string       `gorm:"not null;default:'member'" json:"role"`
	JoinedAt       time.Time    `gorm:"not null" json:"joinedAt"`
}

// Member roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// OrganizationInvite grants membership on redemption. Code is a short
// random token; Email (when set) pins the invite to one signup address.
// The row is deleted once UsedCount reaches MaxUses.
type OrganizationInvite struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrganizationID uint         `gorm:"not null;index" json:"organizationId"`
	Organization   Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Code           string       `gorm:"uniqueIndex;not null" json:"code"`
	Email          string       `json:"email,omitempty"`
	ExpiresAt      *time.Time   `json:"expiresAt,omitempty"`
	MaxUses        int          `gorm:"not null;default:1" json:"maxUses"` // 0 = unlimited
	UsedCount      int          `gorm:"not null;default:0" json:"usedCount"`
	CreatedBy      uint         `gorm:"not null" json:"createdBy"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Expired reports whether the invite's deadline has passed.
func (i *OrganizationInvite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// Exhausted reports whether the invite has no redemptions left.
func (i *OrganizationInvite) Exhausted() bool {
	return i.MaxUses > 0 && i.UsedCount >= i.MaxUses
}
