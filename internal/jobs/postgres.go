package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/pkg/pagination"
	"github.com/JaimeStill/deck-translate/pkg/query"
	"github.com/JaimeStill/deck-translate/pkg/repository"
)

const jobColumns = `id, file_id, user_id, target_language, status, slide_count,
	units_processed, units_total, translated, fallback, cancelled,
	error_code, error_message, retry_after_seconds, output_key,
	created_at, updated_at, started_at, completed_at`

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by the jobs, job_activity, and
// extracted_units tables.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Create(ctx context.Context, j *Job) (*Job, error) {
	q := `INSERT INTO jobs(id, file_id, user_id, target_language, status, slide_count)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING ` + jobColumns

	created, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Job, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			j.ID, j.FileID, j.UserID, j.TargetLanguage, string(j.Status), j.SlideCount,
		}, scanJob)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &created, nil
}

func (s *postgresStore) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	j, err := repository.QueryOne(ctx, s.db, q, []any{id}, scanJob)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &j, nil
}

func (s *postgresStore) Transition(ctx context.Context, id uuid.UUID, from, to Status, patch Patch) (*Job, error) {
	q := `UPDATE jobs SET
			status = $3,
			units_total = COALESCE($4::int, units_total),
			units_processed = COALESCE($5::int, units_processed),
			translated = COALESCE($6::int, translated),
			fallback = COALESCE($7::int, fallback),
			cancelled = COALESCE($8::boolean, cancelled),
			error_code = COALESCE($9::text, error_code),
			error_message = COALESCE($10::text, error_message),
			retry_after_seconds = COALESCE($11::int, retry_after_seconds),
			output_key = COALESCE($12::text, output_key),
			started_at = CASE WHEN $3 = 'extracting' THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $3 IN ('completed', 'failed') THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + jobColumns

	args := []any{
		id, string(from), string(to),
		patch.UnitsTotal, patch.UnitsProcessed, patch.Translated, patch.Fallback,
		patch.Cancelled, patch.ErrorCode, patch.ErrorMessage, patch.RetryAfterSeconds,
		patch.OutputKey,
	}

	j, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Job, error) {
		return repository.QueryOne(ctx, tx, q, args, scanJob)
	})
	if err == nil {
		return &j, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, findErr := s.Find(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrStatusConflict
}

func (s *postgresStore) Progress(ctx context.Context, id uuid.UUID, processed, total int) error {
	q := `UPDATE jobs
		SET units_processed = GREATEST(units_processed, $2), units_total = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'translating'`

	_, err := s.db.ExecContext(ctx, q, id, processed, total)
	return err
}

func (s *postgresStore) List(ctx context.Context, filter Filter) (*Page, error) {
	page := filter.Page
	page.Normalize(pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	qb := filter.Apply(query.NewBuilder(projection, defaultSort))
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	jobs, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanJob)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	result := pagination.NewPageResult(jobs, total, page.Page, page.PageSize)
	return &result, nil
}

func (s *postgresStore) Running(ctx context.Context) ([]Job, error) {
	q, args := query.NewBuilder(projection, query.SortField{Field: "CreatedAt"}).
		WhereIn("Status", string(StatusExtracting), string(StatusTranslating)).
		BuildSelect()

	return repository.QueryMany(ctx, s.db, q, args, scanJob)
}

func (s *postgresStore) AddActivity(ctx context.Context, a Activity) error {
	q := `INSERT INTO job_activity(job_id, level, event, code, message, details)
		VALUES($1, $2, $3, NULLIF($4, ''), $5, $6)`

	var details any
	if len(a.Details) > 0 {
		details = string(a.Details)
	}

	_, err := s.db.ExecContext(ctx, q, a.JobID, a.Level, a.Event, a.Code, a.Message, details)
	return err
}

func (s *postgresStore) Activity(ctx context.Context, id uuid.UUID) ([]Activity, error) {
	q := `SELECT id, job_id, level, event, COALESCE(code, ''), message, details, created_at
		FROM job_activity
		WHERE job_id = $1
		ORDER BY id`

	return repository.QueryMany(ctx, s.db, q, []any{id}, scanActivity)
}

func (s *postgresStore) CachedUnits(ctx context.Context, contentHash string) ([]deck.TextUnit, bool, error) {
	q := `SELECT units FROM extracted_units WHERE content_hash = $1`

	var raw []byte
	if err := s.db.QueryRowContext(ctx, q, contentHash).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var units []deck.TextUnit
	if err := json.Unmarshal(raw, &units); err != nil {
		return nil, false, fmt.Errorf("decode cached units: %w", err)
	}
	return units, true, nil
}

func (s *postgresStore) CacheUnits(ctx context.Context, contentHash string, units []deck.TextUnit) error {
	raw, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("encode units: %w", err)
	}

	q := `INSERT INTO extracted_units(content_hash, units, unit_count)
		VALUES($1, $2, $3)
		ON CONFLICT (content_hash) DO NOTHING`

	_, err = s.db.ExecContext(ctx, q, contentHash, string(raw), len(units))
	return err
}

func scanJob(s repository.Scanner) (Job, error) {
	var (
		j      Job
		status string
	)
	err := s.Scan(
		&j.ID,
		&j.FileID,
		&j.UserID,
		&j.TargetLanguage,
		&status,
		&j.SlideCount,
		&j.UnitsProcessed,
		&j.UnitsTotal,
		&j.Translated,
		&j.Fallback,
		&j.Cancelled,
		&j.ErrorCode,
		&j.ErrorMessage,
		&j.RetryAfterSeconds,
		&j.OutputKey,
		&j.CreatedAt,
		&j.UpdatedAt,
		&j.StartedAt,
		&j.CompletedAt,
	)
	j.Status = Status(status)
	return j, err
}

func scanActivity(s repository.Scanner) (Activity, error) {
	var (
		a       Activity
		details []byte
	)
	err := s.Scan(&a.ID, &a.JobID, &a.Level, &a.Event, &a.Code, &a.Message, &details, &a.CreatedAt)
	if len(details) > 0 {
		a.Details = details
	}
	return a, err
}
