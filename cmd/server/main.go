package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pingquote/pingquote/internal/config"
	"github.com/pingquote/pingquote/internal/db"
	"github.com/pingquote/pingquote/internal/mailer"
	"github.com/pingquote/pingquote/internal/policy"
	"github.com/pingquote/pingquote/internal/server"
	"github.com/pingquote/pingquote/internal/services"
	"github.com/pingquote/pingquote/internal/storage"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if *migrateOnlyFlag {
		if err := db.RunMigrations(); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	cfg := config.Load()
	dbConn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)

	var store storage.ObjectStore
	uploadsDir := ""
	if cfg.StorageDriver == "minio" {
		store, err = storage.NewMinioStore(context.Background(), storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatalf("minio storage: %v", err)
		}
	} else {
		diskStore, err := storage.NewDiskStore(cfg.UploadsDir, cfg.BaseURL)
		if err != nil {
			log.Fatalf("disk storage: %v", err)
		}
		store = diskStore
		uploadsDir = cfg.UploadsDir
	}

	mail := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	g := policy.NewGate(dbConn)

	invites := services.NewInviteService(dbConn, g, mail, cfg.BaseURL)
	deps := server.Deps{
		DB:         dbConn,
		Accounts:   services.NewAccountService(dbConn, invites),
		Quotes:     services.NewQuoteService(dbConn, g, mail, cfg.BaseURL),
		Views:      services.NewViewService(dbConn, mail, cfg.BaseURL),
		Invites:    invites,
		Profiles:   services.NewProfileService(dbConn, store),
		UploadsDir: uploadsDir,
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server.New(deps)}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
