package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"brainbuzz/internal/app"
	"brainbuzz/internal/config"
	"brainbuzz/internal/domain"
	"brainbuzz/internal/infra/memory"
	"brainbuzz/internal/infra/postgres"
	redisstore "brainbuzz/internal/infra/redis"
	"brainbuzz/internal/logger"
	transport "brainbuzz/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
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
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3000"
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	service := app.NewQuizService(stores.quizzes, stores.attempts, memory.NewFeedRegistry(), app.WithLogger(log))
	if cfg.Storage.SeedDemo {
		seedDemoQuiz(ctx, service, log)
	}

	handler := transport.NewRouter(service, transport.NewAuthenticator(cfg.Auth.JWTSecret), log, transport.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: config.TTLDuration(cfg.Server.RequestTimeout, 10*time.Second),
	})
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 0),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", finalPort).
			Str("quizzes", cfg.Storage.Quizzes).
			Str("attempts", cfg.Storage.Attempts).
			Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type stores struct {
	quizzes  app.QuizRepository
	attempts app.AttemptRepository
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores builds the repositories selected by storage.quizzes and storage.attempts.
// A configured redis address also puts a read-through cache in front of quiz lookups.
func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}

	usesPostgres := cfg.Storage.Quizzes == config.DriverPostgres || cfg.Storage.Attempts == config.DriverPostgres
	var (
		pool  *pgxpool.Pool
		bunDB *bun.DB
	)
	if usesPostgres {
		var err error
		bunDB, err = openBunDB(cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = bunDB.Close() })
		if err := runMigrations(ctx, bunDB, log); err != nil {
			s.close()
			return nil, err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
	}

	switch cfg.Storage.Quizzes {
	case config.DriverMemory:
		s.quizzes = memory.NewQuizStore()
	case config.DriverPostgres:
		s.quizzes = postgres.NewQuizStore(pool)
	default:
		s.close()
		return nil, fmt.Errorf("unsupported quiz storage %q", cfg.Storage.Quizzes)
	}

	s.quizzes = wrapQuizCache(cfg, s.quizzes, redisClient)

	switch cfg.Storage.Attempts {
	case config.DriverMemory:
		s.attempts = memory.NewAttemptStore()
	case config.DriverPostgres:
		s.attempts = postgres.NewAttemptStore(bunDB)
	case config.DriverRedis:
		if redisClient == nil {
			s.close()
			return nil, fmt.Errorf("redis attempt storage requires redis.addr")
		}
		s.attempts = redisstore.NewAttemptStore(redisClient)
	default:
		s.close()
		return nil, fmt.Errorf("unsupported attempt storage %q", cfg.Storage.Attempts)
	}
	return s, nil
}

// seedDemoQuiz creates a small quiz so a fresh in-memory deployment has something to take.
func seedDemoQuiz(ctx context.Context, service *app.QuizService, log zerolog.Logger) {
	one, two := 1, 2
	demo := app.QuizInput{
		Title:     "Warm-up arithmetic",
		TimeLimit: 5,
		Questions: []app.QuestionInput{
			{QuestionText: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: &one},
			{QuestionText: "What is 3 * 3?", Options: []string{"6", "8", "9", "12"}, CorrectAnswer: &two, Points: &two},
		},
	}
	instructor := domain.Actor{UserID: "demo-instructor", Role: domain.RoleInstructor}
	quiz, err := service.CreateQuiz(ctx, instructor, demo)
	if err != nil {
		log.Warn().Err(err).Msg("seed demo quiz failed")
		return
	}
	log.Info().Str("quiz_id", quiz.ID).Msg("demo quiz seeded")
}

// wrapQuizCache puts a read-through cache in front of a durable quiz store.
// Redis is shared by every replica; the in-process cache is opt-in because a
// soft delete on one instance cannot invalidate it on another.
func wrapQuizCache(cfg config.Config, quizzes app.QuizRepository, redisClient *redis.Client) app.QuizRepository {
	ttl := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	switch {
	case redisClient != nil:
		return redisstore.NewQuizCache(redisClient, quizzes, ttl)
	case cfg.Quiz.LocalCache && cfg.Storage.Quizzes != config.DriverMemory:
		return memory.NewQuizCache(quizzes, ttl)
	default:
		return quizzes
	}
}
