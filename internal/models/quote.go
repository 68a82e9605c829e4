package models

import "time"

// Quote models. A quote is shared through its PublicID; the numeric
// primary key never leaves the API.
type Quote struct {
	ID             uint   `gorm:"primaryKey"`
	PublicID       string `gorm:"size:36;uniqueIndex;not null" json:"publicId"`
	UserID         uint   `gorm:"not null;index" json:"-"`
	User           User   `gorm:"foreignKey:UserID" json:"-"`
	OrganizationID *uint  `gorm:"index" json:"organizationId,omitempty"`

	ClientName  string `gorm:"not null;index" json:"clientName"`
	ClientEmail string `json:"clientEmail,omitempty"`
	Currency    string `gorm:"size:3;not null;default:'USD'" json:"currency"`
	// DiscountType is "percentage", "fixed", or empty for no discount.
	DiscountType string  `json:"discountType,omitempty"`
	Discount     float64 `json:"discount"`
	Notes        string  `json:"notes,omitempty"`
	PaymentLink  string  `json:"paymentLink,omitempty"`

	LinkCopied int `gorm:"not null;default:0" json:"linkCopied"`
	EmailSent  int `gorm:"not null;default:0" json:"emailSent"`

	// FirstViewNotifiedAt is the atomic claim for the one-per-quote
	// owner notification: set once by the view that wins the race.
	FirstViewNotifiedAt *time.Time `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	DeletedAt *time.Time `gorm:"index" json:"-"` // soft delete, filtered in every query

	Items []QuoteItem `gorm:"foreignKey:QuoteID" json:"items"`
	Views []QuoteView `gorm:"foreignKey:QuoteID" json:"views"`
}

func (q *Quote) GetUserID() uint { return q.UserID }

type QuoteItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	QuoteID     uint    `gorm:"not null;index" json:"-"`
	Description string  `gorm:"not null" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	Price       float64 `gorm:"not null" json:"price"`
}

// QuoteView is timestamp-only on purpose: no viewer identity, IP, or
// user agent is ever stored for external views.
type QuoteView struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	QuoteID  uint      `gorm:"not null;index" json:"-"`
	ViewedAt time.Time `gorm:"not null" json:"viewedAt"`
}
