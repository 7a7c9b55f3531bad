package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codefolio/internal/auth"
	"codefolio/internal/config"
	"codefolio/internal/database"
	"codefolio/internal/handler"
	"codefolio/internal/middleware"
	"codefolio/internal/realtime"
	"codefolio/internal/service"
	"codefolio/internal/storage"
	"codefolio/internal/vfs"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"database", cfg.DatabaseType,
		"asset_store", cfg.AssetStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Token verification for write routes
	verifier, err := auth.NewVerifierFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer verifier.Close()

	// Authoritative record store; the schema must already be migrated
	store, err := database.Open(ctx, cfg, logger, database.Options{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	assets, err := storage.NewAssetStoreFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create asset store: %v", err)
	}

	hub := realtime.NewHub(realtime.DefaultBufferSize, logger)
	defer hub.Close()

	// Services
	planner := vfs.NewPlanner(vfs.Languages(), assets.URLPrefix())
	recordService := service.NewRecordService(
		store.Records,
		store.Tx,
		planner,
		assets,
		hub,
		cfg.DefaultOwnerID,
		logger,
	)
	profileService := service.NewProfileService(store.Profiles, assets, cfg.DefaultOwnerID, logger)

	// Asset sweeper runs only when scheduled
	if cfg.AssetSweepSchedule != "" {
		sweeper := storage.NewSweeper(assets, logger,
			store.Records.ListContentWithPrefix,
			service.AvatarReferences(store.Profiles, cfg.DefaultOwnerID),
		)
		go func() {
			if err := sweeper.Run(ctx, cfg.AssetSweepSchedule); err != nil {
				logger.Error("asset sweeper stopped", "error", err)
			}
		}()
	}

	// Handlers
	fileHandler := handler.NewFileHandler(recordService, cfg.MaxUploadBytes, logger)
	folderHandler := handler.NewFolderHandler(recordService, logger)
	profileHandler := handler.NewProfileHandler(profileService, cfg.MaxUploadBytes, logger)
	healthHandler := handler.NewHealthHandler(store.Pinger, store.Type)

	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }

	// Routes (Go 1.22+ method patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)

	// Files
	mux.HandleFunc("GET /api/files", fileHandler.ListFiles)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.GetFile)
	mux.Handle("POST /api/files", admin(fileHandler.CreateFile))
	mux.Handle("PUT /api/files/{id}", admin(fileHandler.UpdateFile))
	mux.Handle("PATCH /api/files/{id}", admin(fileHandler.UpdateFile))
	mux.Handle("DELETE /api/files/{id}", admin(fileHandler.DeleteFile))
	mux.Handle("POST /api/import", admin(fileHandler.ImportArchive))

	// Folders
	mux.HandleFunc("GET /api/tree", folderHandler.GetTree)
	mux.Handle("POST /api/folders", admin(folderHandler.CreateFolder))
	mux.Handle("PATCH /api/folders", admin(folderHandler.RenameFolder))
	mux.Handle("DELETE /api/folders", admin(folderHandler.DeleteFolder))

	// Profile
	mux.HandleFunc("GET /api/profile", profileHandler.GetProfile)
	mux.Handle("PUT /api/profile", admin(profileHandler.UpdateProfile))
	mux.Handle("POST /api/profile/avatar", admin(profileHandler.UploadAvatar))

	// Change channel
	mux.Handle("GET /ws", realtime.NewWebSocketHandler(hub, cfg.CORSOrigins, logger))
	mux.Handle("GET /api/events", realtime.NewSSEHandler(hub, realtime.DefaultKeepAliveInterval, logger))

	// Local uploads are served by this process; S3 objects are public URLs
	if fs, ok := assets.(*storage.FilesystemStore); ok {
		mux.Handle("GET "+fs.URLPrefix(), fs.Handler())
	}

	logger.Info("routes registered")

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Authenticate(verifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived change streams
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("shutting down")

		// Close subscriber queues so websocket and SSE handlers return
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	<-shutdownDone
	logger.Info("server stopped")
}
