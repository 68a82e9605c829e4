package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/mailer"
	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/policy"
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

func seedOrg(t *testing.T, db *gorm.DB, name string, ownerID uint) models.Organization {
	t.Helper()
	org := models.Organization{Name: name}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("org: %v", err)
	}
	member := models.OrganizationMember{OrganizationID: org.ID, UserID: ownerID, Role: models.RoleOwner, JoinedAt: time.Now()}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("member: %v", err)
	}
	return org
}

func addMember(t *testing.T, db *gorm.DB, orgID, userID uint, role string) {
	t.Helper()
	m := models.OrganizationMember{OrganizationID: orgID, UserID: userID, Role: role, JoinedAt: time.Now()}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("member: %v", err)
	}
}

// fakeMailer records sent messages; Fail makes every send error.
type fakeMailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
	Fail bool
}

func (f *fakeMailer) Send(_ context.Context, m mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return errors.New("relay down")
	}
	f.Sent = append(f.Sent, m)
	return nil
}

func (f *fakeMailer) sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.Sent...)
}

func newQuoteService(t *testing.T, db *gorm.DB, m mailer.Mailer) *QuoteService {
	t.Helper()
	return NewQuoteService(db, policy.NewGate(db), m, "http://test.local")
}

func validQuoteInput() QuoteInput {
	return QuoteInput{
		ClientName:  "Acme Corp",
		ClientEmail: "buyer@acme.test",
		Currency:    "USD",
		Items: []QuoteItemInput{
			{Description: "Design work", Quantity: 2, Price: 10},
			{Description: "Hosting", Quantity: 1, Price: 5},
		},
	}
}
