package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/policy"
)

func setupAccountTest(t *testing.T) (*AccountService, *InviteService) {
	t.Helper()
	db := setupTestDB(t)
	invites := NewInviteService(db, policy.NewGate(db), &fakeMailer{}, "http://test.local")
	return NewAccountService(db, invites), invites
}

func TestSignupCreatesOrgAndOwner(t *testing.T) {
	svc, _ := setupAccountTest(t)

	user, err := svc.Signup(context.Background(), SignupInput{
		Email:            "Founder@Test.Local",
		Password:         "password123",
		Name:             "Founder",
		OrganizationName: "New Co",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "founder@test.local" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Password == "password123" {
		t.Error("password stored in plaintext")
	}

	var member models.OrganizationMember
	err = svc.DB.Where("user_id = ?", user.ID).Preload("Organization").First(&member).Error
	if err != nil {
		t.Fatalf("membership: %v", err)
	}
	if member.Role != models.RoleOwner || member.Organization.Name != "New Co" {
		t.Errorf("membership: %+v", member)
	}
}

func TestSignupWithInviteJoinsOrg(t *testing.T) {
	svc, invites := setupAccountTest(t)
	ctx := context.Background()

	owner := seedUser(t, svc.DB, "owner@test.local")
	org := seedOrg(t, svc.DB, "Existing Org", owner.ID)
	invite, err := invites.Create(ctx, owner.ID, InviteInput{OrganizationID: org.ID, Email: "joiner@test.local"})
	if err != nil {
		t.Fatal(err)
	}

	user, err := svc.Signup(ctx, SignupInput{
		Email:      "joiner@test.local",
		Password:   "password123",
		Name:       "Joiner",
		InviteCode: invite.Code,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	var member models.OrganizationMember
	err = svc.DB.Where("user_id = ? AND organization_id = ?", user.ID, org.ID).First(&member).Error
	if err != nil {
		t.Fatalf("membership: %v", err)
	}
	if member.Role != models.RoleMember {
		t.Errorf("role = %q, want member", member.Role)
	}
}

func TestSignupBadInviteRollsBackUser(t *testing.T) {
	svc, invites := setupAccountTest(t)
	ctx := context.Background()

	owner := seedUser(t, svc.DB, "owner@test.local")
	org := seedOrg(t, svc.DB, "Existing Org", owner.ID)
	past := time.Now().Add(-time.Hour)
	invite, err := invites.Create(ctx, owner.ID, InviteInput{OrganizationID: org.ID, Email: "joiner@test.local", ExpiresAt: &past})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Signup(ctx, SignupInput{
		Email:      "joiner@test.local",
		Password:   "password123",
		Name:       "Joiner",
		InviteCode: invite.Code,
	})
	if !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("expected expired invite error, got %v", err)
	}

	// The user row must not survive the failed redemption.
	var count int64
	svc.DB.Model(&models.User{}).Where("email = ?", "joiner@test.local").Count(&count)
	if count != 0 {
		t.Errorf("user created despite failed invite redemption")
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := setupAccountTest(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"missing email", SignupInput{Password: "password123", Name: "X", OrganizationName: "Co"}, "email"},
		{"bad email", SignupInput{Email: "nope", Password: "password123", Name: "X", OrganizationName: "Co"}, "email"},
		{"short password", SignupInput{Email: "a@b.test", Password: "short", Name: "X", OrganizationName: "Co"}, "password"},
		{"missing name", SignupInput{Email: "a@b.test", Password: "password123", OrganizationName: "Co"}, "name"},
		{"no org or invite", SignupInput{Email: "a@b.test", Password: "password123", Name: "X"}, "organizationName"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := setupAccountTest(t)
	ctx := context.Background()
	seedUser(t, svc.DB, "taken@test.local")

	_, err := svc.Signup(ctx, SignupInput{
		Email:            "taken@test.local",
		Password:         "password123",
		Name:             "X",
		OrganizationName: "Co",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSignupRacingDuplicateMapsUniqueViolation(t *testing.T) {
	svc, _ := setupAccountTest(t)
	seedUser(t, svc.DB, "taken@test.local")

	// A racing signup passes the pre-check and hits the unique index
	// on insert; that driver error must classify as a conflict, not
	// surface as an opaque internal error.
	insertErr := svc.DB.Create(&models.User{Email: "taken@test.local", Password: "x", Name: "Racer"}).Error
	if insertErr == nil {
		t.Fatal("expected unique-index violation")
	}
	if !isUniqueViolation(insertErr) {
		t.Errorf("driver error not recognized as unique violation: %v", insertErr)
	}

	for _, msg := range []string{
		"UNIQUE constraint failed: users.email",
		`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`,
	} {
		if !isUniqueViolation(errors.New(msg)) {
			t.Errorf("message not recognized: %q", msg)
		}
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Error("unrelated error misclassified as unique violation")
	}
}

func TestLogin(t *testing.T) {
	svc, _ := setupAccountTest(t)
	ctx := context.Background()
	seedUser(t, svc.DB, "login@test.local")

	user, err := svc.Login(ctx, "Login@Test.Local", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "login@test.local" {
		t.Errorf("wrong user: %q", user.Email)
	}

	if _, err := svc.Login(ctx, "login@test.local", "wrong-password"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@test.local", "password123"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown email: %v", err)
	}
}
