package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/pingquote/pingquote/internal/auth"
	"github.com/pingquote/pingquote/internal/handlers"
	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/opengraph"
	"github.com/pingquote/pingquote/internal/services"
)

// Deps carries the constructed services into the router.
type Deps struct {
	DB       *gorm.DB
	Accounts *services.AccountService
	Quotes   *services.QuoteService
	Views    *services.ViewService
	Invites  *services.InviteService
	Profiles *services.ProfileService
	// UploadsDir, when set, is mounted on /uploads/ for locally
	// stored logos.
	UploadsDir string
}

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth verifies the session's user still exists.
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		if err := d.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := d.DB.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints (public).
	ah := handlers.NewAuthHandler(d.Accounts)
	ah.Register(mux)

	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	// Quote endpoints.
	qh := handlers.NewQuoteHandler(d.Quotes)
	mux.Handle("/quotes", authed(qh.ListCreate))
	mux.Handle("/quotes/get", authed(qh.Get))
	mux.Handle("/quotes/update", authed(qh.Update))
	mux.Handle("/quotes/delete", authed(qh.Delete))
	mux.Handle("/quotes/copy", authed(qh.Copy))
	mux.Handle("/quotes/send", authed(qh.Send))
	mux.Handle("/quotes/clients", authed(qh.Clients))
	mux.Handle("/quotes/items", authed(qh.Items))

	// Dashboard stats.
	sh := handlers.NewStatsHandler(d.Quotes)
	mux.Handle("/dashboard/stats", authed(sh.Stats))

	// Public share-link surface. Sessions are parsed but not required:
	// the view beacon needs the viewer id to exclude owner views.
	ph := handlers.NewPublicHandler(d.Quotes, d.Views)
	mux.Handle("/q", auth.Middleware(http.HandlerFunc(ph.Get)))
	mux.Handle("/q/view", auth.Middleware(http.HandlerFunc(ph.TrackView)))

	// Invites: validation is public, management is not.
	ih := handlers.NewInviteHandler(d.Invites)
	mux.HandleFunc("/invites/validate", ih.Validate)
	mux.Handle("/invites", authed(ih.Manage))

	// Profile, logo, and team overview.
	prh := handlers.NewProfileHandler(d.Profiles)
	mux.Handle("/profile", authed(prh.Profile))
	mux.Handle("/profile/logo", authed(prh.UploadLogo))
	mux.Handle("/profile/logo/delete", authed(prh.DeleteLogo))
	mux.Handle("/organization", authed(prh.Organizations))

	// Link previews for payment links.
	oh := handlers.NewOpenGraphHandler(opengraph.NewFetcher())
	mux.Handle("/og/preview", authed(oh.Preview))

	if d.UploadsDir != "" {
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadsDir))))
	}

	return withRecover(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
