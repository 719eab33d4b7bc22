//go:build integration

package jobs_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/internal/files"
	"github.com/JaimeStill/deck-translate/internal/jobs"
	"github.com/JaimeStill/deck-translate/migrations"
	"github.com/JaimeStill/deck-translate/pkg/database"
)

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("deck_translate"),
		postgres.WithUsername("deck"),
		postgres.WithPassword("deck"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := &database.Config{Host: host, Port: portNum, Name: "deck_translate", User: "deck", Password: "deck"}

	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL("pgx5"))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	srcErr, dbErr := m.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	db, err := sql.Open("pgx", cfg.Dsn())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedFile(t *testing.T, db *sql.DB) *files.File {
	t.Helper()
	id := uuid.New()
	f, err := files.NewPostgresStore(db).Create(context.Background(), &files.File{
		ID:          id,
		UserID:      "u1",
		Name:        "deck.pptx",
		Filename:    "deck.pptx",
		ContentType: files.ContentType,
		SizeBytes:   1024,
		SlideCount:  2,
		StorageKey:  "files/" + id.String(),
		ContentHash: "hash-" + id.String(),
	})
	require.NoError(t, err)
	return f
}

func TestPostgresStore(t *testing.T) {
	db := setupPostgres(t)
	store := jobs.NewPostgresStore(db)
	ctx := context.Background()
	file := seedFile(t, db)

	found, err := files.NewPostgresStore(db).Find(ctx, file.ID)
	require.NoError(t, err)
	require.Equal(t, file.ContentHash, found.ContentHash)

	job, err := store.Create(ctx, &jobs.Job{
		ID:             uuid.New(),
		FileID:         file.ID,
		UserID:         "u1",
		TargetLanguage: "es",
		Status:         jobs.StatusUploaded,
		SlideCount:     2,
	})
	require.NoError(t, err)
	require.Equal(t, jobs.StatusUploaded, job.Status)
	require.Nil(t, job.StartedAt)

	t.Run("transition compare-and-set", func(t *testing.T) {
		extracting, err := store.Transition(ctx, job.ID, jobs.StatusUploaded, jobs.StatusExtracting, jobs.Patch{})
		require.NoError(t, err)
		require.NotNil(t, extracting.StartedAt)

		_, err = store.Transition(ctx, job.ID, jobs.StatusUploaded, jobs.StatusExtracting, jobs.Patch{})
		require.ErrorIs(t, err, jobs.ErrStatusConflict)

		_, err = store.Transition(ctx, uuid.New(), jobs.StatusUploaded, jobs.StatusExtracting, jobs.Patch{})
		require.ErrorIs(t, err, jobs.ErrNotFound)
	})

	t.Run("running", func(t *testing.T) {
		running, err := store.Running(ctx)
		require.NoError(t, err)
		require.Len(t, running, 1)
		require.Equal(t, job.ID, running[0].ID)
	})

	t.Run("progress is monotonic", func(t *testing.T) {
		total := 4
		_, err := store.Transition(ctx, job.ID, jobs.StatusExtracting, jobs.StatusExtracted, jobs.Patch{UnitsTotal: &total})
		require.NoError(t, err)
		_, err = store.Transition(ctx, job.ID, jobs.StatusExtracted, jobs.StatusTranslating, jobs.Patch{})
		require.NoError(t, err)

		require.NoError(t, store.Progress(ctx, job.ID, 3, 4))
		require.NoError(t, store.Progress(ctx, job.ID, 2, 4))

		j, err := store.Find(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, 3, j.UnitsProcessed)
	})

	t.Run("failure patch", func(t *testing.T) {
		code, msg, retry := "RATE_LIMITED", "slow down", 30
		j, err := store.Transition(ctx, job.ID, jobs.StatusTranslating, jobs.StatusFailed, jobs.Patch{
			ErrorCode:         &code,
			ErrorMessage:      &msg,
			RetryAfterSeconds: &retry,
		})
		require.NoError(t, err)
		require.NotNil(t, j.CompletedAt)
		require.Equal(t, code, j.ErrorCode)
		require.NotNil(t, j.RetryAfterSeconds)
		require.Equal(t, 30, *j.RetryAfterSeconds)
	})

	t.Run("activity", func(t *testing.T) {
		details, _ := json.Marshal(map[string]any{"stage": "translation"})
		require.NoError(t, store.AddActivity(ctx, jobs.Activity{JobID: job.ID, Level: jobs.LevelInfo, Event: "job.created", Message: "created"}))
		require.NoError(t, store.AddActivity(ctx, jobs.Activity{
			JobID: job.ID, Level: jobs.LevelError, Event: "job.failed", Code: "RATE_LIMITED", Message: "failed", Details: details,
		}))

		activity, err := store.Activity(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, activity, 2)
		require.Equal(t, "job.created", activity[0].Event)
		require.Empty(t, activity[0].Code)
		require.Equal(t, "RATE_LIMITED", activity[1].Code)
		require.JSONEq(t, `{"stage":"translation"}`, string(activity[1].Details))
	})

	t.Run("list", func(t *testing.T) {
		failed := jobs.StatusFailed
		page, err := store.List(ctx, jobs.Filter{Status: &failed})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)

		completed := jobs.StatusCompleted
		page, err = store.List(ctx, jobs.Filter{Status: &completed})
		require.NoError(t, err)
		require.Equal(t, 0, page.Total)
	})

	t.Run("extracted unit cache", func(t *testing.T) {
		_, ok, err := store.CachedUnits(ctx, file.ContentHash)
		require.NoError(t, err)
		require.False(t, ok)

		units := []deck.TextUnit{
			deck.NewTextUnit(1, deck.Position{ElementIndex: 0}, "hello"),
			deck.NewTextUnit(2, deck.Position{ElementIndex: 0, Row: 1, Col: 2}, "cell"),
		}
		require.NoError(t, store.CacheUnits(ctx, file.ContentHash, units))
		require.NoError(t, store.CacheUnits(ctx, file.ContentHash, units[:1]))

		cached, ok, err := store.CachedUnits(ctx, file.ContentHash)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, units, cached)
	})
}

func TestPostgresStore_FileDeleteCascades(t *testing.T) {
	db := setupPostgres(t)
	store := jobs.NewPostgresStore(db)
	ctx := context.Background()
	file := seedFile(t, db)

	job, err := store.Create(ctx, &jobs.Job{
		ID: uuid.New(), FileID: file.ID, UserID: "u1", TargetLanguage: "fr", Status: jobs.StatusUploaded,
	})
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, file.ID)
	require.NoError(t, err)

	_, err = store.Find(ctx, job.ID)
	require.True(t, errors.Is(err, jobs.ErrNotFound))
}
