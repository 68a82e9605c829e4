package handlers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/mailer"
	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/policy"
	"github.com/pingquote/pingquote/internal/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.OrganizationInvite{},
		&models.Quote{},
		&models.QuoteItem{},
		&models.QuoteView{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := models.User{Email: email, Password: string(hash), Name: "Test User", CompanyName: "Test Co"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return user
}

func seedQuote(t *testing.T, svc *services.QuoteService, userID uint) *models.Quote {
	t.Helper()
	quote, err := svc.Create(context.Background(), userID, services.QuoteInput{
		ClientName:  "Acme Corp",
		ClientEmail: "buyer@acme.test",
		Currency:    "USD",
		Items:       []services.QuoteItemInput{{Description: "Work", Quantity: 2, Price: 10}},
	})
	if err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	return quote
}

type recordingMailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
}

func (r *recordingMailer) Send(_ context.Context, m mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, m)
	return nil
}

func newQuoteService(db *gorm.DB, m mailer.Mailer) *services.QuoteService {
	return services.NewQuoteService(db, policy.NewGate(db), m, "http://test.local")
}
