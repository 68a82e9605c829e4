package services

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/mailer"
	"github.com/pingquote/pingquote/internal/models"
)

// ViewService records public quote views and fires the one-per-quote
// owner notification.
type ViewService struct {
	DB      *gorm.DB
	Mailer  mailer.Mailer
	BaseURL string
	Now     func() time.Time
}

func NewViewService(db *gorm.DB, m mailer.Mailer, baseURL string) *ViewService {
	return &ViewService{DB: db, Mailer: m, BaseURL: baseURL, Now: time.Now}
}

// ViewResult reports what happened to a tracking call. EmailError is a
// soft flag: the view is recorded even when the notification fails.
type ViewResult struct {
	Tracked    bool   `json:"tracked"`
	Reason     string `json:"reason,omitempty"`
	Notified   bool   `json:"notified"`
	EmailError bool   `json:"emailError,omitempty"`
}

// Record tracks one view of the public quote page.
//
// Owner views are never recorded, so previewing your own quote cannot
// pollute the heat analytics. The stored view carries a timestamp and
// nothing else. The first view triggers exactly one notification
// attempt across the quote's lifetime: concurrent first views race for
// a conditional update on first_view_notified_at, and only the caller
// whose update hits a row sends mail.
func (s *ViewService) Record(ctx context.Context, publicID string, viewerID uint) (ViewResult, error) {
	var quote models.Quote
	err := s.DB.WithContext(ctx).
		Where("public_id = ? AND deleted_at IS NULL", publicID).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ViewResult{}, ErrNotFound
		}
		return ViewResult{}, err
	}

	if viewerID != 0 && viewerID == quote.UserID {
		return ViewResult{Tracked: false, Reason: "owner"}, nil
	}

	now := s.Now()
	view := models.QuoteView{QuoteID: quote.ID, ViewedAt: now}
	if err := s.DB.WithContext(ctx).Create(&view).Error; err != nil {
		return ViewResult{}, err
	}

	// Claim the notification slot. Zero rows affected means another
	// view already won (or has in the past); at most one caller ever
	// proceeds past this point.
	claim := s.DB.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND first_view_notified_at IS NULL", quote.ID).
		UpdateColumn("first_view_notified_at", now)
	if claim.Error != nil {
		log.Printf("view tracker: claim failed for quote %s: %v", publicID, claim.Error)
		return ViewResult{Tracked: true}, nil
	}
	if claim.RowsAffected == 0 {
		return ViewResult{Tracked: true}, nil
	}

	if err := s.notifyOwner(ctx, &quote); err != nil {
		log.Printf("view tracker: notification for quote %s failed: %v", publicID, err)
		return ViewResult{Tracked: true, Notified: false, EmailError: true}, nil
	}
	return ViewResult{Tracked: true, Notified: true}, nil
}

func (s *ViewService) notifyOwner(ctx context.Context, quote *models.Quote) error {
	var owner models.User
	if err := s.DB.WithContext(ctx).First(&owner, quote.UserID).Error; err != nil {
		return err
	}
	if owner.Email == "" {
		return errors.New("owner has no email")
	}

	msg := mailer.QuoteViewed(mailer.QuoteViewedData{
		SenderName:   owner.DisplayName(),
		ClientName:   quote.ClientName,
		QuoteURL:     s.BaseURL + "/q?id=" + quote.PublicID,
		DashboardURL: s.BaseURL + "/dashboard",
	})
	msg.To = owner.Email

	// Bounded send so a slow relay cannot stall the public page.
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.Mailer.Send(sendCtx, msg)
}
