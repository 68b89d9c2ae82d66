package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptquiz-service/internal/app"
	"promptquiz-service/internal/config"
	"promptquiz-service/internal/domain"
	"promptquiz-service/internal/engine"
	"promptquiz-service/internal/infra/memory"
	pgbank "promptquiz-service/internal/infra/postgres"
	redisinfra "promptquiz-service/internal/infra/redis"
	"promptquiz-service/internal/provider"
	transport "promptquiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Question source: generator endpoint when configured, otherwise
	// pre-generated banks from postgres, otherwise baked-in samples.
	var source app.QuestionProvider
	switch {
	case cfg.Provider.URL != "":
		source = provider.NewHTTPClient(cfg.Provider.URL, config.Duration(cfg.Provider.Timeout, 30*time.Second))
	case pool != nil:
		source = pgbank.NewBankLoader(pool)
	default:
		log.Printf("no provider url or postgres configured, serving sample questions")
		source = provider.NewStatic(sampleQuestions())
	}

	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute)
	if redisClient != nil {
		source = redisinfra.NewQuestionCache(redisClient, source, cacheTTL)
	} else {
		source = memory.NewQuestionCache(source, cacheTTL)
	}

	service := app.NewQuizService(source, engine.Options{
		QuestionDuration: config.Duration(cfg.Quiz.QuestionDuration, engine.DefaultQuestionDuration),
		RevealDelay:      config.Duration(cfg.Quiz.RevealDelay, engine.DefaultRevealDelay),
	})
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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

// sampleQuestions keeps dev runs working without any backing services.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:          "What is 2 + 2?",
			Options:       []string{"3", "4", "5"},
			CorrectAnswer: "4",
		},
		{
			Text:          "Which keyword starts a goroutine?",
			Options:       []string{"go", "run", "spawn"},
			CorrectAnswer: "go",
		},
		{
			Text:          "What does len(nil) return for a nil slice?",
			Options:       []string{"0", "panic", "-1"},
			CorrectAnswer: "0",
		},
	}
}
