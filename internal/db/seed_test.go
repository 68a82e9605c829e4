package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/models"
)

func TestSeedIdempotent(t *testing.T) {
	d, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := AutoMigrate(d); err != nil {
		t.Fatal(err)
	}
	seed(d)
	seed(d)

	var userCount int64
	d.Model(&models.User{}).Where("email = ?", "demo@pingquote.local").Count(&userCount)
	if userCount != 1 {
		t.Fatalf("demo user duplicated or missing: got %d", userCount)
	}
	var memberCount int64
	d.Model(&models.OrganizationMember{}).Count(&memberCount)
	if memberCount != 1 {
		t.Fatalf("expected 1 membership got %d", memberCount)
	}
	var member models.OrganizationMember
	if err := d.First(&member).Error; err != nil {
		t.Fatal(err)
	}
	if member.Role != models.RoleOwner {
		t.Errorf("expected owner role got %s", member.Role)
	}
}
