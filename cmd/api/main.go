// cmd/api/main.go
// Sports Buddy API server

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/auth"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/common/database"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/config"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/matches"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/notifications"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/suggestions"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := ensureSchema(db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Event fan-out: log always, Redis and email when configured,
	// websocket hub for connected clients.
	hub := notifications.NewHub()
	go hub.Run()

	publishers := []notifications.Publisher{notifications.LogPublisher{}, hub}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, event records stay local: %v", err)
	} else {
		defer redisClient.Close()
		publishers = append(publishers, notifications.NewRedisPublisher(redisClient, cfg.EventChannel))
	}

	if cfg.EnableEmailNotifications && cfg.SendGridAPIKey != "" {
		publishers = append(publishers, notifications.NewEmailNotifier(
			cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFromAddress, emailLookup(db)))
	}

	events := notifications.NewFanout(publishers...)

	// Services
	matchRepo := matches.NewPostgresRepository(db, cfg.MatchLockTimeout)
	matchService := matches.NewService(matchRepo, events)
	matchHandler := matches.NewHandler(matchService, cfg.SearchPageSize)

	suggestionRepo := suggestions.NewPostgresRepository(db)
	suggestionService := suggestions.NewService(suggestionRepo, suggestions.NewScorer())
	suggestionHandler := suggestions.NewHandler(suggestionService, cfg.SuggestionRadiusKm, cfg.SuggestionResultLimit)

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	// Routes
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	matches.RegisterRoutes(router, matchHandler, authMiddleware)
	suggestions.RegisterRoutes(router, suggestionHandler, authMiddleware)

	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.HandleFunc("/events", hub.ServeWS)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (%s)", cfg.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// emailLookup resolves recipient addresses for the email notifier.
func emailLookup(db *sqlx.DB) notifications.EmailLookup {
	return func(ctx context.Context, userID int64) (string, error) {
		var email string
		err := db.GetContext(ctx, &email, `SELECT email FROM users WHERE id = $1`, userID)
		return email, err
	}
}

// ensureSchema creates the tables this service owns. The unique primary
// key on match_participants backs the one-row-per-user rule.
func ensureSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sports (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		min_players INT NOT NULL DEFAULT 2,
		max_players INT
	);

	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		location TEXT,
		skill_level TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_sports (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sport_id BIGINT NOT NULL REFERENCES sports(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, sport_id)
	);

	CREATE TABLE IF NOT EXISTS friendships (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		friend_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL CHECK (status IN ('pending', 'accepted')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, friend_id)
	);

	CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		sport_id BIGINT NOT NULL REFERENCES sports(id),
		title TEXT NOT NULL,
		description TEXT,
		location TEXT NOT NULL,
		location_name TEXT NOT NULL DEFAULT '',
		scheduled_at TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL CHECK (duration_minutes > 0),
		max_participants INT NOT NULL CHECK (max_participants >= 1),
		skill_level_required TEXT NOT NULL DEFAULT 'any',
		status TEXT NOT NULL DEFAULT 'open'
			CHECK (status IN ('open', 'full', 'completed', 'cancelled')),
		created_by BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_matches_sport ON matches(sport_id);
	CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status);
	CREATE INDEX IF NOT EXISTS idx_matches_scheduled ON matches(scheduled_at);

	CREATE TABLE IF NOT EXISTS match_participants (
		match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'declined')),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (match_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_participants_user ON match_participants(user_id);
	`
	_, err := db.Exec(schema)
	return err
}
