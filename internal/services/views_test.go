package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pingquote/pingquote/internal/models"
)

func setupViewTest(t *testing.T) (*ViewService, *QuoteService, *fakeMailer, models.User, *models.Quote) {
	t.Helper()
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner@test.local")
	fm := &fakeMailer{}
	quotes := newQuoteService(t, db, fm)
	quote, err := quotes.Create(context.Background(), owner.ID, validQuoteInput())
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	views := NewViewService(db, fm, "http://test.local")
	return views, quotes, fm, owner, quote
}

func TestRecordViewTracksAndNotifiesOnce(t *testing.T) {
	views, _, fm, _, quote := setupViewTest(t)
	ctx := context.Background()

	res, err := views.Record(ctx, quote.PublicID, 0)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !res.Tracked || !res.Notified {
		t.Fatalf("first view should track and notify: %+v", res)
	}

	// Second and third views track but never notify again.
	for i := 0; i < 2; i++ {
		res, err = views.Record(ctx, quote.PublicID, 0)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !res.Tracked || res.Notified {
			t.Fatalf("repeat view %d: %+v", i, res)
		}
	}

	sent := fm.sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(sent))
	}
	if sent[0].To != "owner@test.local" {
		t.Errorf("notification to %s", sent[0].To)
	}
	if !strings.Contains(sent[0].Subject, "viewed") {
		t.Errorf("unexpected subject %q", sent[0].Subject)
	}
}

func TestRecordViewExcludesOwner(t *testing.T) {
	views, _, fm, owner, quote := setupViewTest(t)

	res, err := views.Record(context.Background(), quote.PublicID, owner.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.Tracked || res.Reason != "owner" {
		t.Fatalf("owner view must not track: %+v", res)
	}
	if len(fm.sent()) != 0 {
		t.Errorf("owner view must not notify")
	}

	var count int64
	views.DB.Model(&models.QuoteView{}).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 stored views, got %d", count)
	}
}

func TestRecordViewOtherUserTracks(t *testing.T) {
	views, _, _, _, quote := setupViewTest(t)
	other := seedUser(t, views.DB, "other@test.local")

	res, err := views.Record(context.Background(), quote.PublicID, other.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !res.Tracked {
		t.Fatalf("non-owner authenticated view must track: %+v", res)
	}
}

func TestRecordViewEmailFailureIsSoft(t *testing.T) {
	views, _, fm, _, quote := setupViewTest(t)
	fm.Fail = true

	res, err := views.Record(context.Background(), quote.PublicID, 0)
	if err != nil {
		t.Fatalf("record must not fail on email error: %v", err)
	}
	if !res.Tracked || res.Notified || !res.EmailError {
		t.Fatalf("expected tracked with soft email error: %+v", res)
	}

	var count int64
	views.DB.Model(&models.QuoteView{}).Count(&count)
	if count != 1 {
		t.Errorf("view must persist despite email failure, got %d", count)
	}

	// The claim was consumed: recovery does not retry the email.
	fm.Fail = false
	res, _ = views.Record(context.Background(), quote.PublicID, 0)
	if res.Notified {
		t.Errorf("notification slot should stay claimed after a failed send")
	}
}

func TestRecordViewConcurrentFirstViews(t *testing.T) {
	views, _, fm, _, quote := setupViewTest(t)
	// Single connection keeps sqlite happy; the notification claim
	// still races at the service layer.
	if sqlDB, err := views.DB.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	const n = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]ViewResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = views.Record(context.Background(), quote.PublicID, 0)
		}(i)
	}
	close(start)
	wg.Wait()

	tracked, notified := 0, 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("record %d: %v", i, errs[i])
		}
		if results[i].Tracked {
			tracked++
		}
		if results[i].Notified {
			notified++
		}
	}
	if tracked != n {
		t.Errorf("tracked = %d, want %d", tracked, n)
	}
	if notified > 1 {
		t.Errorf("notified = %d, want at most 1", notified)
	}
	if sent := fm.sent(); len(sent) > 1 {
		t.Errorf("sent %d notifications, want at most 1", len(sent))
	}
}

func TestRecordViewUnknownQuote(t *testing.T) {
	views, _, _, _, _ := setupViewTest(t)
	_, err := views.Record(context.Background(), "no-such-id", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordViewDeletedQuote(t *testing.T) {
	views, quotes, _, owner, quote := setupViewTest(t)
	if err := quotes.SoftDelete(context.Background(), owner.ID, quote.PublicID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := views.Record(context.Background(), quote.PublicID, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted quote must look absent, got %v", err)
	}
}

func TestRecordViewStoresTimestampOnly(t *testing.T) {
	views, _, _, _, quote := setupViewTest(t)
	before := time.Now().Add(-time.Second)
	if _, err := views.Record(context.Background(), quote.PublicID, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	var view models.QuoteView
	if err := views.DB.First(&view).Error; err != nil {
		t.Fatalf("load view: %v", err)
	}
	if view.ViewedAt.Before(before) {
		t.Errorf("viewedAt not set: %v", view.ViewedAt)
	}
}
