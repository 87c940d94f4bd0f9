package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const backendPostgres = "postgres"

// PostgresStore keeps every collection in a single jsonb documents table.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewPostgresStore creates a new PostgresStore over an opened pgx pool.
func NewPostgresStore(db *sql.DB, logger logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the documents table if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, qCreateDocuments); err != nil {
		return s.wrap(err, "creating documents table")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	defer observe(backendPostgres, "get", time.Now())

	var body []byte
	err := s.db.QueryRowContext(ctx, qGetDocument, string(c), key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, s.wrap(err, fmt.Sprintf("querying %s/%s", c, key))
	}
	return body, nil
}

func (s *PostgresStore) Put(ctx context.Context, c Collection, key string, doc []byte) error {
	defer observe(backendPostgres, "put", time.Now())

	if _, err := s.db.ExecContext(ctx, qUpsertDocument, string(c), key, doc); err != nil {
		return s.wrap(err, fmt.Sprintf("upserting %s/%s", c, key))
	}
	return nil
}

// Update is atomic, the row is locked with FOR UPDATE for the duration of fn.
func (s *PostgresStore) Update(ctx context.Context, c Collection, key string, fn UpdateFunc) error {
	defer observe(backendPostgres, "update", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	var body []byte
	err = tx.QueryRowContext(ctx, qGetDocumentForUpdate, string(c), key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return s.wrap(err, fmt.Sprintf("locking %s/%s", c, key))
	}

	next, err := fn(body)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, qReplaceDocument, string(c), key, next); err != nil {
		return s.wrap(err, fmt.Sprintf("replacing %s/%s", c, key))
	}
	if err := tx.Commit(); err != nil {
		return s.wrap(err, "committing transaction")
	}
	return nil
}

func (s *PostgresStore) PutField(ctx context.Context, c Collection, key string, path []string, value any) error {
	defer observe(backendPostgres, "put_field", time.Now())

	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}

	res, err := s.db.ExecContext(ctx, qSetDocumentField, string(c), key, path, raw)
	if err != nil {
		return s.wrap(err, fmt.Sprintf("setting field of %s/%s", c, key))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.wrap(err, "reading affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, c Collection) ([][]byte, error) {
	defer observe(backendPostgres, "list", time.Now())

	rows, err := s.db.QueryContext(ctx, qListDocuments, string(c))
	if err != nil {
		return nil, s.wrap(err, fmt.Sprintf("listing %s", c))
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", c, err)
		}
		out = append(out, body)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(err, fmt.Sprintf("iterating %s", c))
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.wrap(err, "pinging postgres")
	}
	return nil
}

// wrap turns connection level failures into ErrConnectionFailed and
// annotates everything else.
func (s *PostgresStore) wrap(err error, op string) error {
	if isConnectionError(err) {
		metrics.StoreTransientErrors.Inc()
		s.logger.Warnw("Postgres connection error", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, ErrConnectionFailed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.AdminShutdown ||
			pgErr.Code == pgerrcode.CannotConnectNow
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
