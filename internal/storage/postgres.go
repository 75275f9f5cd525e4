package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/academy-console/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveDraft upserts a draft
func (r *PostgresRepository) SaveDraft(ctx context.Context, d *models.Draft) error {
	templateJSON, err := json.Marshal(d.Template)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	var snapshotJSON []byte
	if d.Snapshot != nil {
		snapshotJSON, err = json.Marshal(d.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
	}

	query := `
		INSERT INTO builder_drafts (id, session_key, mode, state, template, snapshot, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET mode = EXCLUDED.mode, state = EXCLUDED.state, template = EXCLUDED.template,
		    snapshot = EXCLUDED.snapshot, last_error = EXCLUDED.last_error, updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query,
		d.ID,
		d.SessionKey,
		string(d.Mode),
		string(d.State),
		templateJSON,
		snapshotJSON,
		nullString(d.LastError),
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	return nil
}

const draftColumns = `id, session_key, mode, state, template, snapshot, last_error, created_at, updated_at`

// GetDraft retrieves a draft by ID
func (r *PostgresRepository) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM builder_drafts WHERE id = $1`

	d, err := scanDraft(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

// TransitionState updates the draft's state in one conditional statement,
// so concurrent callers cannot both leave from
func (r *PostgresRepository) TransitionState(ctx context.Context, id string, from, to models.EditorState) error {
	query := `
		UPDATE builder_drafts
		SET state = $3, updated_at = $4
		WHERE id = $1 AND state = $2
	`

	result, err := r.pool.Exec(ctx, query, id, string(from), string(to), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update draft state: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Nothing matched: tell a missing draft from one in another state
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM builder_drafts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check draft: %w", err)
	}
	if !exists {
		return ErrDraftNotFound
	}
	return ErrStateConflict
}

// DeleteDraft deletes a draft by ID
func (r *PostgresRepository) DeleteDraft(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM builder_drafts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrDraftNotFound
	}

	return nil
}

// ListDrafts returns the drafts of a session, oldest first
func (r *PostgresRepository) ListDrafts(ctx context.Context, sessionKey string) ([]*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM builder_drafts WHERE session_key = $1 ORDER BY created_at`
	return r.queryDrafts(ctx, query, sessionKey)
}

// GetIdleDrafts returns drafts not updated since before
func (r *PostgresRepository) GetIdleDrafts(ctx context.Context, before time.Time) ([]*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM builder_drafts WHERE updated_at < $1`
	return r.queryDrafts(ctx, query, before)
}

func (r *PostgresRepository) queryDrafts(ctx context.Context, query string, args ...interface{}) ([]*models.Draft, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}

	return drafts, rows.Err()
}

func scanDraft(row pgx.Row) (*models.Draft, error) {
	var d models.Draft
	var mode, state string
	var lastError sql.NullString
	var templateJSON, snapshotJSON []byte

	err := row.Scan(
		&d.ID,
		&d.SessionKey,
		&mode,
		&state,
		&templateJSON,
		&snapshotJSON,
		&lastError,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Mode = models.EditorMode(mode)
	d.State = models.EditorState(state)
	d.LastError = lastError.String

	if err := json.Unmarshal(templateJSON, &d.Template); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}
	if len(snapshotJSON) > 0 {
		var snapshot models.Template
		if err := json.Unmarshal(snapshotJSON, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		d.Snapshot = &snapshot
	}

	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
