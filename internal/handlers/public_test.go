package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pingquote/pingquote/internal/auth"
	"github.com/pingquote/pingquote/internal/services"
)

func setupPublicTest(t *testing.T) (*PublicHandler, *recordingMailer, uint, string) {
	t.Helper()
	db := setupTestDB(t)
	user := seedUser(t, db, "owner@test.local")
	rm := &recordingMailer{}
	quotes := newQuoteService(db, rm)
	quote := seedQuote(t, quotes, user.ID)
	views := services.NewViewService(db, rm, "http://test.local")
	return NewPublicHandler(quotes, views), rm, user.ID, quote.PublicID
}

func TestPublicQuotePayload(t *testing.T) {
	h, _, _, publicID := setupPublicTest(t)

	req := httptest.NewRequest(http.MethodGet, "/q?id="+publicID, nil)
	w := httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["owner"] == nil || payload["totals"] == nil || payload["items"] == nil {
		t.Fatalf("incomplete payload: %s", w.Body.String())
	}

	// Owner analytics never leak to the share page.
	for _, secret := range []string{"views", "linkCopied", "emailSent", "heat"} {
		if _, ok := payload[secret]; ok {
			t.Errorf("public payload leaks %q", secret)
		}
	}
	owner, _ := payload["owner"].(map[string]any)
	if _, ok := owner["password"]; ok {
		t.Error("owner profile leaks password")
	}
}

func TestPublicViewBeacon(t *testing.T) {
	h, rm, ownerID, publicID := setupPublicTest(t)

	// Anonymous view tracks and notifies.
	req := httptest.NewRequest(http.MethodPost, "/q/view?id="+publicID, nil)
	w := httptest.NewRecorder()
	h.TrackView(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"tracked":true`) {
		t.Fatalf("body: %s", w.Body.String())
	}
	if len(rm.Sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rm.Sent))
	}

	// Owner view is excluded.
	ownerReq := httptest.NewRequest(http.MethodPost, "/q/view?id="+publicID, nil)
	ownerReq = ownerReq.WithContext(auth.WithUserID(ownerReq.Context(), ownerID))
	ownerW := httptest.NewRecorder()
	h.TrackView(ownerW, ownerReq)
	if !strings.Contains(ownerW.Body.String(), `"reason":"owner"`) {
		t.Fatalf("owner view body: %s", ownerW.Body.String())
	}
}

func TestPublicUnknownQuote404(t *testing.T) {
	h, _, _, _ := setupPublicTest(t)

	req := httptest.NewRequest(http.MethodGet, "/q?id=missing", nil)
	w := httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
