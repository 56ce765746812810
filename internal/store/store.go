package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/gtourv/PLprediction/internal/apperr"
	"github.com/gtourv/PLprediction/internal/league"
)

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// StandingsStore holds the single current league table.
type StandingsStore interface {
	// GetStandings returns the stored table, or the seeded defaults with a nil
	// UpdatedAt when nothing has been stored yet.
	GetStandings(ctx context.Context) (league.Standings, error)
	// SetStandings replaces the stored table and stamps it with the current time.
	SetStandings(ctx context.Context, teams league.Ordering) (league.Standings, error)
}

// SubmissionStore holds named predictions.
type SubmissionStore interface {
	ListSubmissions(ctx context.Context) ([]league.Submission, error)
	// CreateSubmission stores a new prediction. Names are unique ignoring case.
	CreateSubmission(ctx context.Context, name string, prediction league.Ordering) (league.Submission, error)
}

// Store is the full persistence contract used by the service.
type Store interface {
	StandingsStore
	SubmissionStore
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Postgres wraps a Postgres connection and persists submissions and standings.
type Postgres struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewPostgres opens a Postgres connection using the given connection string.
func NewPostgres(ctx context.Context, connStr string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, apperr.Storage("database misconfigured", fmt.Errorf("opening database: %w", err))
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// verify early
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperr.Storage("database unavailable", fmt.Errorf("pinging database: %w", err))
	}
	logger.InfoContext(ctx, "Connected to Postgres")
	return &Postgres{DB: db, logger: logger}, nil
}

// Migrate creates the tables if they do not exist and seeds the standings row.
func (s *Postgres) Migrate(ctx context.Context) error {
	seed, err := json.Marshal(league.DefaultTeams)
	if err != nil {
		return fmt.Errorf("encoding default teams: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id         TEXT        PRIMARY KEY,
			name       TEXT        NOT NULL,
			name_key   TEXT,
			prediction JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`ALTER TABLE submissions ADD COLUMN IF NOT EXISTS name_key TEXT`,
		`CREATE TABLE IF NOT EXISTS standings (
			id         INT         PRIMARY KEY,
			teams      JSONB       NOT NULL,
			updated_at TIMESTAMPTZ
		)`,
		// older databases created updated_at as NOT NULL DEFAULT now()
		`ALTER TABLE standings ALTER COLUMN updated_at DROP NOT NULL`,
		`ALTER TABLE standings ALTER COLUMN updated_at DROP DEFAULT`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return apperr.Storage("schema bootstrap failed", fmt.Errorf("migrating: %w", err))
		}
	}

	if err := s.backfillNameKeys(ctx); err != nil {
		return apperr.Storage("schema bootstrap failed", err)
	}

	// uniqueness is on the key computed in Go, not lower(name), whose folding
	// depends on the database collation
	queries = []string{
		`ALTER TABLE submissions ALTER COLUMN name_key SET NOT NULL`,
		`DROP INDEX IF EXISTS submissions_name_lower_key`,
		`CREATE UNIQUE INDEX IF NOT EXISTS submissions_name_key_key ON submissions (name_key)`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return apperr.Storage("schema bootstrap failed", fmt.Errorf("migrating: %w", err))
		}
	}

	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO standings (id, teams) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		string(seed),
	); err != nil {
		return apperr.Storage("schema bootstrap failed", fmt.Errorf("seeding standings: %w", err))
	}
	return nil
}

// backfillNameKeys fills name_key for rows written before the column existed.
func (s *Postgres) backfillNameKeys(ctx context.Context) error {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM submissions WHERE name_key IS NULL`)
	if err != nil {
		return fmt.Errorf("querying rows without name key: %w", err)
	}
	keys := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return fmt.Errorf("scanning submission row: %w", err)
		}
		keys[id] = nameKey(name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating submission rows: %w", err)
	}

	for id, key := range keys {
		if _, err := s.DB.ExecContext(ctx,
			`UPDATE submissions SET name_key = $1 WHERE id = $2`, key, id,
		); err != nil {
			return fmt.Errorf("backfilling name key for %s: %w", id, err)
		}
	}
	if len(keys) > 0 {
		s.logger.InfoContext(ctx, "Backfilled submission name keys", "rows", len(keys))
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return apperr.Storage("database unavailable", fmt.Errorf("pinging database: %w", err))
	}
	return nil
}

func (s *Postgres) Close() error {
	return s.DB.Close()
}

func (s *Postgres) GetStandings(ctx context.Context) (league.Standings, error) {
	var (
		raw       []byte
		updatedAt sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT teams, updated_at FROM standings WHERE id = 1`,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return league.Standings{Teams: league.Defaults()}, nil
	}
	if err != nil {
		return league.Standings{}, apperr.Storage("database unavailable", fmt.Errorf("querying standings: %w", err))
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return league.Standings{}, apperr.Storage("stored standings are corrupt", fmt.Errorf("decoding standings: %w", err))
	}
	teams, err := league.NewOrdering(stored)
	if err != nil {
		return league.Standings{}, apperr.Storage("stored standings are corrupt", fmt.Errorf("validating standings: %w", err))
	}
	st := league.Standings{Teams: teams}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		st.UpdatedAt = &t
	}
	return st, nil
}

func (s *Postgres) SetStandings(ctx context.Context, teams league.Ordering) (league.Standings, error) {
	teams, err := league.NewOrdering(teams)
	if err != nil {
		return league.Standings{}, err
	}
	raw, err := json.Marshal(teams)
	if err != nil {
		return league.Standings{}, fmt.Errorf("encoding standings: %w", err)
	}

	const q = `
		INSERT INTO standings (id, teams, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE
		SET teams = EXCLUDED.teams, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`
	var updatedAt time.Time
	if err := s.DB.QueryRowContext(ctx, q, string(raw)).Scan(&updatedAt); err != nil {
		return league.Standings{}, apperr.Storage("database unavailable", fmt.Errorf("upserting standings: %w", err))
	}
	updatedAt = updatedAt.UTC()
	return league.Standings{Teams: teams, UpdatedAt: &updatedAt}, nil
}

func (s *Postgres) ListSubmissions(ctx context.Context) ([]league.Submission, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, prediction, created_at FROM submissions`,
	)
	if err != nil {
		return nil, apperr.Storage("database unavailable", fmt.Errorf("querying submissions: %w", err))
	}
	defer rows.Close()

	var subs []league.Submission
	for rows.Next() {
		var (
			sub league.Submission
			raw []byte
		)
		if err := rows.Scan(&sub.ID, &sub.Name, &raw, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning submission row: %w", err)
		}
		if err := json.Unmarshal(raw, &sub.Prediction); err != nil {
			return nil, fmt.Errorf("decoding prediction for %s: %w", sub.ID, err)
		}
		sub.CreatedAt = sub.CreatedAt.UTC()
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("database unavailable", fmt.Errorf("iterating submission rows: %w", err))
	}
	return subs, nil
}

// CreateSubmission relies on the unique index over name_key, so two
// concurrent inserts differing only in case cannot both succeed.
func (s *Postgres) CreateSubmission(ctx context.Context, name string, prediction league.Ordering) (league.Submission, error) {
	sub, err := newSubmission(name, prediction)
	if err != nil {
		return league.Submission{}, err
	}
	raw, err := json.Marshal(sub.Prediction)
	if err != nil {
		return league.Submission{}, fmt.Errorf("encoding prediction: %w", err)
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO submissions (id, name, name_key, prediction, created_at) VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.Name, nameKey(sub.Name), string(raw), sub.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return league.Submission{}, errDuplicate()
		}
		return league.Submission{}, apperr.Storage("database unavailable", fmt.Errorf("inserting submission: %w", err))
	}
	return sub, nil
}

func newSubmission(name string, prediction league.Ordering) (league.Submission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return league.Submission{}, apperr.InvalidInput("name is required")
	}
	teams, err := league.NewOrdering(prediction)
	if err != nil {
		return league.Submission{}, err
	}
	return league.Submission{
		ID:         uuid.NewString(),
		Name:       name,
		Prediction: teams,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}, nil
}

// nameKey is the form names are compared in: NFC-normalised, then case folded.
func nameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

func errDuplicate() error {
	return apperr.Conflict("You have already submitted a prediction")
}
