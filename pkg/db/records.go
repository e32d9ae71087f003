package db

import (
	"context"
	"fmt"
	"time"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/darwin-luque/uptime-monitor/pkg/utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const defaultHealthTimeout = 5 * time.Second

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
	kind       TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, id)
)`

// RecordStore keeps records as JSONB rows keyed by (kind, id).
type RecordStore struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRecordStore(pool *pgxpool.Pool, logger *zerolog.Logger) *RecordStore {
	return &RecordStore{pool: pool, logger: logger}
}

// EnsureSchema creates the records table if it does not exist.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	const op = "store.postgres.ensure_schema"

	if _, err := s.pool.Exec(ctx, createRecordsTable); err != nil {
		return utils.WrapRepoError(op, err, false, s.logger)
	}
	return nil
}

func (s *RecordStore) ListIDs(ctx context.Context, kind string) ([]string, error) {
	const op = "store.postgres.list_ids"

	rows, err := s.pool.Query(ctx, `SELECT id FROM records WHERE kind = $1 ORDER BY id`, kind)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, s.logger)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, utils.WrapRepoError(op, err, false, s.logger)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, s.logger)
	}

	return ids, nil
}

func (s *RecordStore) Read(ctx context.Context, kind, id string) ([]byte, error) {
	const op = "store.postgres.read"

	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM records WHERE kind = $1 AND id = $2`, kind, id).Scan(&data)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, true, s.logger)
	}
	return data, nil
}

// Create inserts a new record. A duplicate (kind, id) is a Conflict.
func (s *RecordStore) Create(ctx context.Context, kind, id string, data []byte) error {
	const op = "store.postgres.create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO records (kind, id, data, updated_at)
		VALUES ($1, $2, $3, now())`,
		kind, id, string(data),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, s.logger)
	}
	return nil
}

// Update overwrites an existing record. A row deleted in the meantime is not
// recreated; Update returns NotFound.
func (s *RecordStore) Update(ctx context.Context, kind, id string, data []byte) error {
	const op = "store.postgres.update"

	tag, err := s.pool.Exec(ctx, `
		UPDATE records SET data = $3, updated_at = now()
		WHERE kind = $1 AND id = $2`,
		kind, id, string(data),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, s.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: fmt.Sprintf("%s %q not found", kind, id),
		}
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, kind, id string) error {
	const op = "store.postgres.delete"

	if _, err := s.pool.Exec(ctx, `DELETE FROM records WHERE kind = $1 AND id = $2`, kind, id); err != nil {
		return utils.WrapRepoError(op, err, false, s.logger)
	}
	return nil
}

func (s *RecordStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
