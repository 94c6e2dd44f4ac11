package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/HAN2S/Houps/internal/app"
	"github.com/HAN2S/Houps/internal/config"
	"github.com/HAN2S/Houps/internal/domain"
	"github.com/HAN2S/Houps/internal/infra/memory"
	pgsource "github.com/HAN2S/Houps/internal/infra/postgres"
	redisinfra "github.com/HAN2S/Houps/internal/infra/redis"
	transport "github.com/HAN2S/Houps/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Game.SessionTTL, 2*time.Hour)
	questionTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var questions app.QuestionSource
	switch {
	case pool != nil && redisClient != nil:
		questions = redisinfra.NewQuestionCache(redisClient, pgsource.NewQuestionSource(pool), questionTTL)
	case pool != nil:
		questions = pgsource.NewQuestionSource(pool)
	default:
		questions = sampleQuestionBank()
	}

	var store app.SessionStore
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore(sessionTTL)
	}

	hub := transport.NewHub()
	service := app.NewGameService(store, questions, hub)
	wsHandler := transport.NewWSHandler(service, hub)
	roomsHandler := transport.NewRoomsHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/rooms", roomsHandler.CreateRoom)
	mux.HandleFunc("/categories", roomsHandler.Categories)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionBank provides a minimal catalog for running without
// Postgres; swap in the database-backed source in production.
func sampleQuestionBank() *memory.QuestionBank {
	categories := []domain.Category{
		{ID: 1, Name: "Geography"},
		{ID: 2, Name: "Science"},
	}
	questions := []domain.Question{
		{
			ID:              1,
			CategoryID:      1,
			Text:            "What is the capital of France?",
			CorrectAnswer:   "Paris",
			TrapAnswer:      "Lyon",
			FallbackOptions: []string{"Marseille", "Nice", "Toulouse", "Bordeaux"},
			Difficulty:      1,
		},
		{
			ID:              2,
			CategoryID:      1,
			Text:            "Which river flows through Cairo?",
			CorrectAnswer:   "The Nile",
			TrapAnswer:      "The Euphrates",
			FallbackOptions: []string{"The Congo", "The Niger", "The Zambezi", "The Danube"},
			Difficulty:      2,
		},
		{
			ID:              3,
			CategoryID:      2,
			Text:            "What planet is known as the Red Planet?",
			CorrectAnswer:   "Mars",
			TrapAnswer:      "Jupiter",
			FallbackOptions: []string{"Venus", "Mercury", "Saturn", "Neptune"},
			Difficulty:      1,
		},
	}
	return memory.NewQuestionBank(categories, questions)
}
