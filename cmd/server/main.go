package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/cutsprite/cutsprite/internal/asset"
	"github.com/cutsprite/cutsprite/internal/auth"
	"github.com/cutsprite/cutsprite/internal/config"
	"github.com/cutsprite/cutsprite/internal/db"
	"github.com/cutsprite/cutsprite/internal/engine"
	"github.com/cutsprite/cutsprite/internal/export"
	mw "github.com/cutsprite/cutsprite/internal/middleware"
	"github.com/cutsprite/cutsprite/internal/project"
	"github.com/cutsprite/cutsprite/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := session.NewHub(slog.Default(),
		engine.WithCanvas(cfg.CanvasWidth, cfg.CanvasHeight),
		engine.WithSnapThreshold(cfg.SnapThreshold),
		engine.WithFPS(cfg.DefaultFPS),
	)
	go hub.Run()

	sessionHandler := session.NewHandler(hub, cfg.OriginHosts(), cfg.ThumbnailSize)
	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(hub)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf(`{"status":"ok","sessions":%d}`, hub.Sessions())))
	}).Methods("GET")

	// Asset endpoints
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Live editing sessions (public)
	r.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET")
	r.HandleFunc("/sessions/{id}", sessionHandler.Delete).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/sessions/{id}/image", sessionHandler.UploadImage).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/project", sessionHandler.GetProject).Methods("GET")
	r.HandleFunc("/sessions/{id}/project", sessionHandler.PutProject).Methods("PUT", "OPTIONS")
	r.HandleFunc("/sessions/{id}/groups", sessionHandler.GetGroups).Methods("GET")
	r.HandleFunc("/sessions/{id}/groups", sessionHandler.ImportGroups).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/slices/{slice}/thumbnail", sessionHandler.Thumbnail).Methods("GET")
	r.HandleFunc("/sessions/{id}/export/{kind}", exportHandler.Export).Methods("POST", "OPTIONS")
	r.HandleFunc("/ws/session/{id}", sessionHandler.ServeWS)

	// Saved projects need Postgres; without DATABASE_URL only live sessions run.
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}

		queries := db.New(pool)

		authService := auth.NewService(queries, cfg.JWTSecret, cfg.BcryptCost)
		authHandler := auth.NewHandler(authService)

		projectService := project.NewService(queries, hub)
		projectHandler := project.NewHandler(projectService)

		// Auth routes (public)
		r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
		r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

		// Protected API routes
		api := r.PathPrefix("/api").Subrouter()
		api.Use(authService.AuthMiddleware)

		api.HandleFunc("/me", authHandler.Me).Methods("GET")
		api.HandleFunc("/projects", projectHandler.List).Methods("GET")
		api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
		api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")
		api.HandleFunc("/projects/{projectId}", projectHandler.Delete).Methods("DELETE")
		api.HandleFunc("/projects/{projectId}/invite", projectHandler.Invite).Methods("POST")
		api.HandleFunc("/projects/{projectId}/members", projectHandler.ListMembers).Methods("GET")
		api.HandleFunc("/projects/{projectId}/members/{userId}", projectHandler.RemoveMember).Methods("DELETE")
		api.HandleFunc("/projects/{projectId}/document", projectHandler.GetDocument).Methods("GET")
		api.HandleFunc("/projects/{projectId}/document", projectHandler.SaveDocument).Methods("PUT")
		api.HandleFunc("/projects/{projectId}/open", projectHandler.Open).Methods("POST")
		api.HandleFunc("/projects/{projectId}/save", projectHandler.SaveSession).Methods("POST")
	} else {
		slog.Warn("DATABASE_URL is empty, saved projects disabled")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop playback timers before connections drain.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
