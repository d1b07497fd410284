package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nmo-web-backend/internal/connector"
	"nmo-web-backend/internal/domain"
	"nmo-web-backend/pkg/database"
)

// SQLSTATE insufficient_privilege
const pgInsufficientPrivilege = "42501"

var kindRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

const createRecordsTable = `
	CREATE TABLE IF NOT EXISTS store_records (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		kind       TEXT NOT NULL,
		fields     JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Driver stores documents as JSONB rows keyed by record kind
type Driver struct {
	dbURL string
}

var _ connector.Driver = (*Driver)(nil)

func NewDriver(dbURL string) *Driver {
	return &Driver{dbURL: dbURL}
}

func (d *Driver) Name() string {
	return "postgres"
}

func (d *Driver) Connect(ctx context.Context) (connector.Handle, error) {
	if d.dbURL == "" {
		return nil, errors.New("postgres: DATABASE_URL not configured")
	}

	pool, err := database.NewPostgresConnection(ctx, d.dbURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}

	return &requestRepo{db: pool}, nil
}

type requestRepo struct {
	db *pgxpool.Pool
}

func (r *requestRepo) Locate(collection string) (connector.Collection, error) {
	if !kindRegex.MatchString(collection) {
		return nil, fmt.Errorf("postgres: invalid collection name %q", collection)
	}
	return &recordCollection{db: r.db, kind: collection}, nil
}

func (r *requestRepo) Close() error {
	r.db.Close()
	return nil
}

type recordCollection struct {
	db   *pgxpool.Pool
	kind string
}

func (c *recordCollection) Insert(ctx context.Context, fields map[string]any) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", &domain.StoreError{Kind: domain.StoreErrorOther, Op: "encode", Err: err}
	}

	query := `INSERT INTO store_records (kind, fields) VALUES ($1, $2::jsonb) RETURNING id::text`

	var id string
	if err := c.db.QueryRow(ctx, query, c.kind, string(payload)).Scan(&id); err != nil {
		return "", wrapError(err)
	}
	return id, nil
}

func wrapError(err error) error {
	kind := domain.StoreErrorOther
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		kind = domain.StoreErrorPermissionDenied
	}
	return &domain.StoreError{Kind: kind, Op: "insert", Err: fmt.Errorf("failed to insert record: %w", err)}
}
