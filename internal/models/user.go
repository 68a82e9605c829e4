package models

import "time"

// User & auth related models
type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Email       string `gorm:"unique;not null;index" json:"email"`
	Password    string `gorm:"not null" json:"-"` // bcrypt hash
	Name        string `gorm:"index" json:"name"`
	CompanyName string `json:"companyName,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// PublicProfile is the subset of owner fields exposed on the public
// quote page.
type PublicProfile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{Name: u.Name, Email: u.Email, CompanyName: u.CompanyName, LogoURL: u.LogoURL}
}

// DisplayName prefers the company name on outbound email.
func (u *User) DisplayName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	if u.Name != "" {
		return u.Name
	}
	return "there"
}
