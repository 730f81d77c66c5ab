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

	"prep-quiz-service/internal/app"
	"prep-quiz-service/internal/config"
	"prep-quiz-service/internal/domain"
	"prep-quiz-service/internal/infra/memory"
	pginfra "prep-quiz-service/internal/infra/postgres"
	redisinfra "prep-quiz-service/internal/infra/redis"
	transport "prep-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the practice-quiz server",
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

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleLectures())
	if pool != nil {
		loader = pginfra.NewBankLoader(pool)
	}
	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	bankRepo := memory.NewBankRepository(loader, bankTTL)

	var masteryStore app.MasteryStore = memory.NewMasteryStore()
	if redisClient != nil {
		masteryStore = redisinfra.NewMasteryStore(redisClient)
	}

	var attemptStore app.AttemptStore = memory.NewAttemptStore()
	switch {
	case pool != nil:
		attemptStore = pginfra.NewAttemptStore(pool)
	case redisClient != nil:
		attemptStore = redisinfra.NewAttemptStore(redisClient)
	}

	privileged := make(map[string]struct{}, len(cfg.Practice.PrivilegedLearners))
	for _, id := range cfg.Practice.PrivilegedLearners {
		privileged[id] = struct{}{}
	}
	opts := app.Options{
		PoolSize:           cfg.Practice.PoolSize,
		ScoreTolerance:     cfg.Practice.ScoreTolerance,
		PrivilegedLearners: privileged,
	}

	service := app.NewPracticeService(memory.NewSessionStore(), bankRepo, masteryStore, attemptStore, opts)
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
		log.Printf("starting practice-quiz service on :%s", finalPort)
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

// sampleLectures provides a minimal bank for running without Postgres; swap
// in the database-backed loader in production.
func sampleLectures() []domain.Lecture {
	return []domain.Lecture{
		{
			Number: 1,
			Title:  "Foundations",
			Topics: "arithmetic warm-up",
			Questions: []domain.Question{
				{
					ID:      "lecture1_q1",
					Lecture: 1,
					Section: "warm-up",
					Prompt:  "What is 2 + 2?",
					Options: map[string]string{
						"A": "3", "B": "4", "C": "5", "D": "22",
					},
					CorrectOption: "B",
					Explanation:   "Two plus two equals four.",
				},
				{
					ID:      "lecture1_q2",
					Lecture: 1,
					Section: "warm-up",
					Prompt:  "What is 9 * 9?",
					Options: map[string]string{
						"A": "72", "B": "99", "C": "81", "D": "18",
					},
					CorrectOption: "C",
					Explanation:   "Nine squared is eighty-one.",
				},
			},
		},
	}
}
