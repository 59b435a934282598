// Command blogme runs the local BlogMe client: it serves the feed pages
// and the JSON API, mirrors posts to the remote backend and keeps the
// device-local store in SQLite.
//
// main only wires things together:
//  1. config, database, translations
//  2. websocket hub
//  3. repositories, gateways, services (init_repos.go, init_services.go)
//  4. handlers and routes (init_handlers.go, init_routes.go)
//  5. CORS, HTTP server, graceful shutdown
package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/akinalp/blogme/config"
	"github.com/akinalp/blogme/database"
	"github.com/akinalp/blogme/handlers"
	"github.com/akinalp/blogme/pkg/i18n"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] blogme starting...")

	// ─── Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d, remote=%s)", cfg.Server.Port, cfg.Remote.BaseURL)

	// ─── Database ───
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}
	db, err := database.New(cfg.Database.Path, migrations)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}

	// ─── i18n ───
	locales, err := fs.Sub(i18n.EmbeddedLocales, "locales")
	if err != nil {
		log.Fatalf("[main] failed to open embedded locales: %v", err)
	}
	if err := i18n.Load(locales); err != nil {
		log.Fatalf("[main] failed to load translations: %v", err)
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("[main] failed to parse templates: %v", err)
	}

	// ─── WebSocket Hub ───
	hub := ws.NewHub()

	// ─── Repositories, gateways, services ───
	repos := initRepositories(db.Conn)
	gws := initGateways(cfg.Remote, prometheus.DefaultRegisterer)
	svcs, limiters, err := initServices(db.Conn, repos, gws, hub, renderer, cfg)
	if err != nil {
		log.Fatalf("[main] failed to initialize services: %v", err)
	}

	// A closed tab drops its feed cursor. Registered before Run so no
	// disconnect is missed.
	hub.OnPageClosed(svcs.Feed.ClosePage)
	hub.OnHeartbeat(svcs.Pager.Touch)
	go hub.Run()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), cfg.Remote.ListTimeout+5*time.Second)
	if err := svcs.Feed.Boot(bootCtx); err != nil {
		log.Printf("[main] feed boot incomplete: %v", err)
	}
	bootCancel()
	log.Printf("[main] feed ready (%d posts)", svcs.State.Len())

	// ─── Handlers, routes ───
	h := initHandlers(svcs, limiters, hub, renderer, cfg)
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth)

	// ─── CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			cfg.Server.PublicURL,
			"http://localhost:9090",
			"http://127.0.0.1:9090",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", handlers.PageHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	// ─── HTTP Server ───
	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     corsHandler.Handler(mux),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: websocket connections are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	// ─── Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}

	// Pending remote syncs and reaction confirmations still write to the
	// store, so they finish before the database closes.
	svcs.Feed.Wait()
	svcs.Reactions.Wait()
	svcs.Pager.Close()
	svcs.Comments.Close()
	limiters.Login.Close()
	hub.Shutdown()

	if err := db.Close(); err != nil {
		log.Printf("[main] failed to close database: %v", err)
	}
	log.Println("[main] stopped")
}
