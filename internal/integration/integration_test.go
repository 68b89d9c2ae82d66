package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"promptquiz-service/internal/app"
	"promptquiz-service/internal/domain"
	"promptquiz-service/internal/engine"
	pgbank "promptquiz-service/internal/infra/postgres"
	pgmigrations "promptquiz-service/internal/infra/postgres/migrations"
	infraredis "promptquiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBank(t, ctx, pgURL, "go basics", bankQuestions())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := &countingLoader{inner: pgbank.NewBankLoader(pool)}
	source := infraredis.NewQuestionCache(redisClient, loader, 5*time.Minute)
	service := app.NewQuizService(source, engine.Options{
		QuestionDuration: 2 * time.Second,
		RevealDelay:      20 * time.Millisecond,
	})

	session, err := service.StartSession(ctx, "go basics")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer session.Close()
	if loader.calls != 1 {
		t.Fatalf("expected bank loaded once, got %d", loader.calls)
	}

	updates, cancel := session.Subscribe()
	defer cancel()

	// Answer the first question correctly, let the second time out.
	session.SelectOption("4")

	report := waitForReport(t, updates, 10*time.Second)
	if report.CorrectCount != 1 || report.Total != 2 {
		t.Fatalf("expected 1/2, got %d/%d", report.CorrectCount, report.Total)
	}
	if o := report.Outcomes[1]; o.SelectedAnswer != domain.NoAnswer || o.IsCorrect {
		t.Fatalf("expected timed-out second question, got %+v", o)
	}

	// A second session for the same prompt comes from the redis cache.
	second, err := service.StartSession(ctx, "go basics")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	defer second.Close()
	if loader.calls != 1 {
		t.Fatalf("expected cache hit for second session, loader calls=%d", loader.calls)
	}
}

func waitForReport(t *testing.T, updates <-chan engine.Snapshot, timeout time.Duration) *domain.Report {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				t.Fatalf("updates channel closed before finish")
			}
			if snap.Phase == domain.PhaseFinished {
				return snap.Report
			}
		case <-deadline:
			t.Fatalf("session did not finish within %s", timeout)
		}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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

func seedBank(t *testing.T, ctx context.Context, dsn, topic string, questions []domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal bank: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_banks (topic, data) VALUES (?, ?::jsonb) ON CONFLICT (topic) DO UPDATE SET data=EXCLUDED.data`, topic, string(data)); err != nil {
		t.Fatalf("insert bank: %v", err)
	}
}

type countingLoader struct {
	inner *pgbank.BankLoader
	calls int
}

func (l *countingLoader) Generate(ctx context.Context, topic string) ([]domain.Question, error) {
	l.calls++
	return l.inner.Generate(ctx, topic)
}

func bankQuestions() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4"},
		{Text: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid"}, CorrectAnswer: "Paris"},
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
