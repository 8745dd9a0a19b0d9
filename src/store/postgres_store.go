package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS expense_records (
    id         BIGSERIAL PRIMARY KEY,
    user_id    TEXT        NOT NULL,
    data       JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS expense_records_user_created_at ON expense_records (user_id, created_at);
`

// PostgresStore keeps documents in a JSONB column.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and returns a Postgres-backed Store implementation.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	if connStr == "" {
		return nil, opError("connect", errors.New("postgres dsn is required"))
	}
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, opError("connect", fmt.Errorf("failed to connect to Postgres: %w", err))
	}
	return &PostgresStore{DB: db}, nil
}

func (ps *PostgresStore) CreateSchema(ctx context.Context) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	if _, err := ps.DB.Exec(ctx, postgresSchema); err != nil {
		return opError("create schema", err)
	}
	return nil
}

func (ps *PostgresStore) Save(ctx context.Context, userID string, data map[string]any) (Record, error) {
	if err := ValidateDocument(userID, data); err != nil {
		return Record{}, err
	}
	if ps == nil || ps.DB == nil {
		return Record{}, opError("save", errors.New("postgres pool is not configured"))
	}
	body, err := json.Marshal(data)
	if err != nil {
		return Record{}, opError("save", err)
	}
	var (
		id        int64
		createdAt time.Time
	)
	err = ps.DB.QueryRow(ctx, `
                INSERT INTO expense_records (user_id, data)
                VALUES ($1, $2::jsonb)
                RETURNING id, created_at;
        `, userID, string(body)).Scan(&id, &createdAt)
	if err != nil {
		return Record{}, opError("save", err)
	}
	return Record{ID: strconv.FormatInt(id, 10), UserID: userID, Data: data, CreatedAt: createdAt.UTC()}, nil
}

func (ps *PostgresStore) List(ctx context.Context, q Query) ([]Record, error) {
	if ps == nil || ps.DB == nil {
		return nil, opError("list", errors.New("postgres pool is not configured"))
	}
	if q.UserID == "" {
		return nil, opError("list", errors.New("user id is required"))
	}
	rows, err := ps.DB.Query(ctx, `
        SELECT id, user_id, data::text, created_at
        FROM expense_records
        WHERE user_id = $1
        ORDER BY created_at, id;
        `, q.UserID)
	if err != nil {
		return nil, opError("list", err)
	}
	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, opError("list", err)
	}
	return filterRecords(records, q), nil
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var (
		id        int64
		rec       Record
		body      string
		createdAt time.Time
	)
	if err := row.Scan(&id, &rec.UserID, &body, &createdAt); err != nil {
		return Record{}, err
	}
	rec.ID = strconv.FormatInt(id, 10)
	rec.CreatedAt = createdAt.UTC()
	rec.Data = map[string]any{}
	if err := json.Unmarshal([]byte(body), &rec.Data); err != nil {
		return Record{}, fmt.Errorf("decode data for record %d: %w", id, err)
	}
	return rec, nil
}

// Close releases the pool.
func (ps *PostgresStore) Close() error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	ps.DB.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
