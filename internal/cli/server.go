package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adaptive-quiz-service/internal/ai"
	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/config"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/evaluator"
	"adaptive-quiz-service/internal/generator"
	"adaptive-quiz-service/internal/infra/memory"
	pgstore "adaptive-quiz-service/internal/infra/postgres"
	rediscache "adaptive-quiz-service/internal/infra/redis"
	"adaptive-quiz-service/internal/progression"
	transport "adaptive-quiz-service/internal/transport/http"
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
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api key not configured (set openai.apiKey or OPENAI_API_KEY)")
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var resources generator.ResourceStore = memory.NewResourceStore(sampleResources())
	var perfStore progression.Store = memory.NewPerformanceStore()
	if pool != nil {
		resources = pgstore.NewResourceStore(pool)
		perfStore = pgstore.NewPerformanceStore(pool)
	}

	resourceTTL := config.TTLDuration(cfg.Quiz.ResourceTTL, 10*time.Minute)
	if redisClient != nil {
		resources = rediscache.NewResourceCache(redisClient, resources, resourceTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = rediscache.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var providerOpts []ai.OpenAIOption
	if cfg.OpenAI.Model != "" {
		providerOpts = append(providerOpts, ai.WithModel(cfg.OpenAI.Model))
	}
	provider := ai.NewOpenAIProvider(cfg.OpenAI.APIKey, providerOpts...)

	engine := progression.NewEngine(perfStore, progression.Config{
		PassThreshold:      cfg.Quiz.PassThreshold,
		MaxDifficulty:      cfg.Quiz.MaxDifficulty,
		EnableGamification: cfg.Gamification(),
	})

	service := app.NewQuizService(
		sessions,
		generator.NewSelector(resources, cfg.Quiz.RevisionFileLimit),
		generator.New(provider),
		evaluator.New(provider),
		engine,
		app.Settings{
			QuestionsPerQuiz: cfg.Quiz.QuestionsPerQuiz,
			TimeLimit:        cfg.TimeLimit(),
			Language:         cfg.Quiz.Language,
		},
	)
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
		log.Printf("starting adaptive quiz service on :%s", finalPort)
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

// sampleResources seeds the in-memory store when no database is configured;
// useful for local development only.
func sampleResources() []domain.Resource {
	return []domain.Resource{
		{ID: "math-basics", Subject: "math", Difficulty: 1, Locator: "fixtures/math-basics.pdf", Language: "en"},
		{ID: "math-fractions", Subject: "math", Difficulty: 2, Locator: "fixtures/math-fractions.pdf", Language: "en"},
		{ID: "math-algebra", Subject: "math", Difficulty: 3, Locator: "fixtures/math-algebra.pdf", Language: "en"},
		{ID: "science-matter", Subject: "science", Difficulty: 1, Locator: "fixtures/science-matter.pdf", Language: "en"},
		{ID: "science-energy", Subject: "science", Difficulty: 2, Locator: "fixtures/science-energy.pdf", Language: "en"},
	}
}
