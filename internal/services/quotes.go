package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/gate"
	"github.com/pingquote/pingquote/internal/mailer"
	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/validation"
)

// QuoteService owns the quote lifecycle: create, edit, soft delete,
// and the listing/visibility rules for personal and organization
// quotes.
type QuoteService struct {
	DB      *gorm.DB
	Gate    *gate.Gate[uint]
	Mailer  mailer.Mailer
	BaseURL string
}

func NewQuoteService(db *gorm.DB, g *gate.Gate[uint], m mailer.Mailer, baseURL string) *QuoteService {
	return &QuoteService{DB: db, Gate: g, Mailer: m, BaseURL: baseURL}
}

type QuoteItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

type QuoteInput struct {
	ClientName   string           `json:"clientName"`
	ClientEmail  string           `json:"clientEmail"`
	Currency     string           `json:"currency"`
	DiscountType string           `json:"discountType"`
	Discount     float64          `json:"discount"`
	Notes        string           `json:"notes"`
	PaymentLink  string           `json:"paymentLink"`
	Items        []QuoteItemInput `json:"items"`
}

// normalize fills defaults and canonicalizes the discount type before
// validation ("none" and no discount are stored as the empty string).
func (in *QuoteInput) normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientEmail = strings.TrimSpace(in.ClientEmail)
	if in.Currency == "" {
		in.Currency = "USD"
	}
	in.Currency = strings.ToUpper(in.Currency)
	if in.DiscountType == DiscountNone || in.Discount <= 0 {
		in.DiscountType = ""
	}
}

func (in *QuoteInput) validate() error {
	var v validation.Violations
	validation.Required("clientName", in.ClientName, &v)
	validation.Email("clientEmail", in.ClientEmail, &v)
	validation.ExactLen("currency", in.Currency, 3, &v)
	validation.OneOf("discountType", in.DiscountType, []string{DiscountPercentage, DiscountFixed}, &v)
	validation.NonNegativeFloat("discount", in.Discount, &v)
	validation.URL("paymentLink", in.PaymentLink, &v)
	if len(in.Items) == 0 {
		v = append(v, validation.Violation{Field: "items", Rule: "required"})
	}
	for _, it := range in.Items {
		validation.Required("items.description", it.Description, &v)
		validation.PositiveFloat("items.quantity", it.Quantity, &v)
		validation.NonNegativeFloat("items.price", it.Price, &v)
	}
	return firstViolation(v)
}

func (in *QuoteInput) buildItems() []models.QuoteItem {
	items := make([]models.QuoteItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, models.QuoteItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return items
}

// orgIDs returns the ids of every organization the user belongs to,
// oldest membership first.
func (s *QuoteService) orgIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.DB.WithContext(ctx).Model(&models.OrganizationMember{}).
		Where("user_id = ?", userID).
		Order("joined_at asc").
		Pluck("organization_id", &ids).Error
	return ids, err
}

// visible scopes a query to quotes the caller may see: their own, or
// any belonging to an organization they are a member of. Soft-deleted
// quotes are excluded everywhere.
func (s *QuoteService) visible(ctx context.Context, callerID uint) (*gorm.DB, error) {
	orgIDs, err := s.orgIDs(ctx, callerID)
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Model(&models.Quote{}).Where("deleted_at IS NULL")
	if len(orgIDs) > 0 {
		return q.Where("user_id = ? OR organization_id IN ?", callerID, orgIDs), nil
	}
	return q.Where("user_id = ?", callerID), nil
}

// Create validates and persists a new quote with its items in one
// transaction. The quote is attached to the caller's primary (oldest)
// organization when they have one.
func (s *QuoteService) Create(ctx context.Context, callerID uint, in QuoteInput) (*models.Quote, error) {
	if callerID == 0 {
		return nil, ErrUnauthorized
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	orgIDs, err := s.orgIDs(ctx, callerID)
	if err != nil {
		return nil, err
	}
	var orgID *uint
	if len(orgIDs) > 0 {
		orgID = &orgIDs[0]
	}

	quote := models.Quote{
		PublicID:       uuid.NewString(),
		UserID:         callerID,
		OrganizationID: orgID,
		ClientName:     in.ClientName,
		ClientEmail:    in.ClientEmail,
		Currency:       in.Currency,
		DiscountType:   in.DiscountType,
		Discount:       in.Discount,
		Notes:          in.Notes,
		PaymentLink:    in.PaymentLink,
		Items:          in.buildItems(),
	}
	if err := s.DB.WithContext(ctx).Create(&quote).Error; err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return &quote, nil
}

// List returns the caller's visible quotes, newest first, with items
// and views preloaded (views newest first, for the classifier).
func (s *QuoteService) List(ctx context.Context, callerID uint) ([]models.Quote, error) {
	if callerID == 0 {
		return nil, ErrUnauthorized
	}
	q, err := s.visible(ctx, callerID)
	if err != nil {
		return nil, err
	}
	var quotes []models.Quote
	err = q.Preload("Items").
		Preload("Views", func(db *gorm.DB) *gorm.DB { return db.Order("viewed_at desc") }).
		Preload("User").
		Order("created_at desc").
		Find(&quotes).Error
	return quotes, err
}

// Get returns one visible quote by public id. Absent, soft-deleted,
// and inaccessible quotes are indistinguishable to the caller.
func (s *QuoteService) Get(ctx context.Context, callerID uint, publicID string) (*models.Quote, error) {
	if callerID == 0 {
		return nil, ErrUnauthorized
	}
	var quote models.Quote
	err := s.DB.WithContext(ctx).
		Where("public_id = ? AND deleted_at IS NULL", publicID).
		Preload("Items").
		Preload("Views", func(db *gorm.DB) *gorm.DB { return db.Order("viewed_at desc") }).
		Preload("User").
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, callerID, gate.ActionView, "quote", &quote); err != nil {
		return nil, ErrNotFound
	}
	return &quote, nil
}

// GetPublic returns a quote for the unauthenticated share page:
// quote, items, and the owner's limited profile.
func (s *QuoteService) GetPublic(ctx context.Context, publicID string) (*models.Quote, error) {
	var quote models.Quote
	err := s.DB.WithContext(ctx).
		Where("public_id = ? AND deleted_at IS NULL", publicID).
		Preload("Items").
		Preload("User").
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// Update edits a quote. The item collection is always replaced whole —
// delete all, recreate — together with the field update in a single
// transaction, so a concurrent reader never sees a half-edited quote.
func (s *QuoteService) Update(ctx context.Context, callerID uint, publicID string, in QuoteInput) (*models.Quote, error) {
	quote, err := s.Get(ctx, callerID, publicID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, callerID, gate.ActionUpdate, "quote", quote); err != nil {
		return nil, ErrNotFound
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	items := in.buildItems()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"client_name":   in.ClientName,
			"client_email":  in.ClientEmail,
			"currency":      in.Currency,
			"discount_type": in.DiscountType,
			"discount":      in.Discount,
			"notes":         in.Notes,
			"payment_link":  in.PaymentLink,
			"edited_at":     now,
		}
		if err := tx.Model(&models.Quote{}).Where("id = ?", quote.ID).Updates(updates).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = quote.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}
	return s.Get(ctx, callerID, publicID)
}

// SoftDelete marks the quote deleted. The row and its views stay in
// storage but disappear from every listing and lookup.
func (s *QuoteService) SoftDelete(ctx context.Context, callerID uint, publicID string) error {
	quote, err := s.Get(ctx, callerID, publicID)
	if err != nil {
		return err
	}
	if err := s.Gate.Authorize(ctx, callerID, gate.ActionDelete, "quote", quote); err != nil {
		return ErrNotFound
	}
	return s.DB.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ?", quote.ID).
		UpdateColumn("deleted_at", time.Now()).Error
}

// TrackLinkCopy bumps the share counter. Owner-only: org members can
// see a quote but the share metrics belong to its author.
func (s *QuoteService) TrackLinkCopy(ctx context.Context, callerID uint, publicID string) error {
	if callerID == 0 {
		return ErrUnauthorized
	}
	res := s.DB.WithContext(ctx).Model(&models.Quote{}).
		Where("public_id = ? AND user_id = ? AND deleted_at IS NULL", publicID, callerID).
		UpdateColumn("link_copied", gorm.Expr("link_copied + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SendToClient emails the quote link to the client and bumps the
// emailSent counter. Unlike the first-view notification this send is
// the operation itself, so a delivery failure is a hard error.
func (s *QuoteService) SendToClient(ctx context.Context, callerID uint, publicID string) (string, error) {
	if callerID == 0 {
		return "", ErrUnauthorized
	}
	var quote models.Quote
	err := s.DB.WithContext(ctx).
		Where("public_id = ? AND user_id = ? AND deleted_at IS NULL", publicID, callerID).
		Preload("Items").
		Preload("User").
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if quote.ClientEmail == "" {
		return "", &ValidationError{Field: "clientEmail", Rule: "required"}
	}

	msg := mailer.QuoteDelivered(mailer.QuoteDeliveredData{
		ClientName: quote.ClientName,
		SenderName: quote.User.DisplayName(),
		QuoteURL:   s.BaseURL + "/q?id=" + quote.PublicID,
		ItemCount:  len(quote.Items),
	})
	msg.To = quote.ClientEmail
	msg.ReplyTo = quote.User.Email

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.Mailer.Send(sendCtx, msg); err != nil {
		return "", fmt.Errorf("send quote email: %w", err)
	}

	if err := s.DB.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ?", quote.ID).
		UpdateColumn("email_sent", gorm.Expr("email_sent + 1")).Error; err != nil {
		return "", err
	}
	return quote.ClientEmail, nil
}

// ClientSuggestion backs the client autocomplete on the new-quote form.
type ClientSuggestion struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UniqueClients lists distinct clients (case-insensitive by name)
// across the caller's visible quotes, most recent first.
func (s *QuoteService) UniqueClients(ctx context.Context, callerID uint) ([]ClientSuggestion, error) {
	q, err := s.visible(ctx, callerID)
	if err != nil {
		return nil, err
	}
	var quotes []models.Quote
	if err := q.Select("client_name", "client_email").Order("created_at desc").Find(&quotes).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var out []ClientSuggestion
	for _, quote := range quotes {
		key := strings.ToLower(quote.ClientName)
		if idx, ok := seen[key]; ok {
			if out[idx].Email == "" && quote.ClientEmail != "" {
				out[idx].Email = quote.ClientEmail
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, ClientSuggestion{Name: quote.ClientName, Email: quote.ClientEmail})
	}
	return out, nil
}

// UniqueLineItems lists distinct item descriptions with their most
// recent price and quantity, for the line-item autocomplete.
func (s *QuoteService) UniqueLineItems(ctx context.Context, callerID uint) ([]QuoteItemInput, error) {
	orgIDs, err := s.orgIDs(ctx, callerID)
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Model(&models.QuoteItem{}).
		Select("quote_items.*").
		Joins("JOIN quotes ON quotes.id = quote_items.quote_id").
		Where("quotes.deleted_at IS NULL")
	if len(orgIDs) > 0 {
		q = q.Where("quotes.user_id = ? OR quotes.organization_id IN ?", callerID, orgIDs)
	} else {
		q = q.Where("quotes.user_id = ?", callerID)
	}
	var items []models.QuoteItem
	if err := q.Order("quotes.created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []QuoteItemInput
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it.Description))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, QuoteItemInput{Description: it.Description, Quantity: it.Quantity, Price: it.Price})
	}
	return out, nil
}
