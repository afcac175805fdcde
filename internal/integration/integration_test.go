package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"brainbuzz/internal/app"
	"brainbuzz/internal/domain"
	"brainbuzz/internal/infra/memory"
	"brainbuzz/internal/infra/postgres"
	pgmigrations "brainbuzz/internal/infra/postgres/migrations"
	infraredis "brainbuzz/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

var (
	instructor = domain.Actor{UserID: "instructor-1", Role: domain.RoleInstructor}
	alice      = domain.Actor{UserID: "student-1", Role: domain.RoleStudent}
)

func TestPostgresBackedQuizFlow(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDatabase(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizzes := infraredis.NewQuizCache(redisClient, postgres.NewQuizStore(pool), 5*time.Minute)
	attempts := postgres.NewAttemptStore(db)
	service := app.NewQuizService(quizzes, attempts, memory.NewFeedRegistry())

	quiz, err := service.CreateQuiz(ctx, instructor, sampleInput())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	stored, err := service.GetQuiz(ctx, alice, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if stored.TotalPoints != 3 || len(stored.Questions) != 2 || stored.Questions[0].Points != nil {
		t.Fatalf("quiz did not round trip through postgres: %+v", stored)
	}

	attempt, err := service.SubmitAttempt(ctx, alice, quiz.ID, []*int{intp(0), intp(1)}, 20)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if attempt.Score != 2 || attempt.Grade != domain.GradeC {
		t.Fatalf("unexpected attempt %+v", attempt)
	}

	// Bypass the service fast path so the unique constraint is what rejects it.
	dup := attempt
	dup.ID = "another-id"
	if err := attempts.CreateAttempt(ctx, dup); !errors.Is(err, domain.ErrDuplicateAttempt) {
		t.Fatalf("expected unique constraint to reject duplicate, got %v", err)
	}

	got, err := service.GetAttempt(ctx, alice, attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if len(got.Answers) != 2 || got.Answers[1].SelectedAnswer == nil || *got.Answers[1].SelectedAnswer != 1 {
		t.Fatalf("answers did not round trip: %+v", got.Answers)
	}

	if err := service.DeleteQuiz(ctx, instructor, quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.GetQuiz(ctx, alice, quiz.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected cached quiz to be evicted on delete, got %v", err)
	}

	results, err := service.QuizResults(ctx, instructor, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if results.Statistics.SubmittedCount != 1 || results.Statistics.AverageScore != 66.67 {
		t.Fatalf("unexpected statistics %+v", results.Statistics)
	}
}

func TestRedisAttemptStoreConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	service := app.NewQuizService(memory.NewQuizStore(), infraredis.NewAttemptStore(redisClient), memory.NewFeedRegistry())
	quiz, err := service.CreateQuiz(ctx, instructor, sampleInput())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.SubmitAttempt(ctx, alice, quiz.ID, []*int{intp(0), intp(1)}, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case errors.Is(err, domain.ErrDuplicateAttempt):
				dups++
			default:
				t.Errorf("submit: %v", err)
			}
		}()
	}
	wg.Wait()

	if oks != 1 || dups != 15 {
		t.Fatalf("expected exactly one stored attempt, got %d stored and %d duplicates", oks, dups)
	}
}

func migrateDatabase(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func sampleInput() app.QuizInput {
	return app.QuizInput{
		Title:     "Integration quiz",
		TimeLimit: 15,
		Questions: []app.QuestionInput{
			{QuestionText: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: intp(1)},
			{QuestionText: "Capital of France?", Options: []string{"Lyon", "Paris"}, CorrectAnswer: intp(1), Points: intp(2)},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

func intp(v int) *int { return &v }
