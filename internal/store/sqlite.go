// Package store executes data operations inside the bound building's
// partition. It is the single enforcement point for tenant isolation:
// nothing runs without a building bound on the request context, and the
// partition is always derived from that binding, never from a caller
// parameter.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/minhdn/towerdesk/internal/logging"
	"github.com/minhdn/towerdesk/internal/tenant"
)

// ErrNoTenant is returned when a data operation is attempted without a
// building bound to the request context.
var ErrNoTenant = errors.New("no building context: authentication required for data access")

// ErrBadTenantID is returned when a bound building id cannot name a
// partition. The id originates in token claims, so it is still external
// input even after signature verification.
var ErrBadTenantID = errors.New("building id is not a valid partition name")

// tenantIDPattern restricts partition names to identifier characters
// before they are substituted into statement namespaces.
var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Store is the tenant-scoped SQLite gateway. Each building's data lives
// in its own database file, attached under the building id as its schema
// name; statements address tables as {schema}.table and the placeholder
// is resolved from the request context at execution time.
type Store struct {
	db      *sql.DB
	dataDir string
	log     *logging.Logger

	mu       sync.Mutex
	attached map[string]struct{}
}

// Open opens the control database under dataDir and prepares the store.
func Open(dataDir string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dataDir+"/control.db")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// ATTACH is per-connection state; a single pooled connection keeps
	// every attached partition visible to every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	s := &Store{
		db:       db,
		dataDir:  dataDir,
		log:      log.Sub("store"),
		attached: make(map[string]struct{}),
	}
	s.log.Info().Str("dataDir", dataDir).Msg("store opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.log.Info().Msg("closing store")
	return s.db.Close()
}

// Query runs a read statement inside the bound building's partition and
// returns rows as column-name maps.
func (s *Store) Query(ctx context.Context, tmpl string, args ...any) ([]map[string]any, error) {
	stmt, err := s.resolve(ctx, tmpl)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

// Exec runs a mutation inside the bound building's partition and returns
// the affected row count.
func (s *Store) Exec(ctx context.Context, tmpl string, args ...any) (int64, error) {
	stmt, err := s.resolve(ctx, tmpl)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("executing statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

// resolve derives the partition from the request context, attaches it if
// needed, and substitutes it into the statement namespace.
func (s *Store) resolve(ctx context.Context, tmpl string) (string, error) {
	building, ok := tenant.From(ctx)
	if !ok {
		return "", ErrNoTenant
	}
	if !tenantIDPattern.MatchString(building) {
		return "", fmt.Errorf("%w: %q", ErrBadTenantID, building)
	}
	if err := s.attach(ctx, building); err != nil {
		return "", err
	}
	return strings.ReplaceAll(tmpl, "{schema}", building), nil
}

// attach makes the building's database file visible under its schema
// name. Idempotent per store lifetime.
func (s *Store) attach(ctx context.Context, building string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.attached[building]; ok {
		return nil
	}

	path := fmt.Sprintf("%s/%s.db", s.dataDir, building)
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("ATTACH DATABASE ? AS %s", building), path); err != nil {
		return fmt.Errorf("attaching partition %s: %w", building, err)
	}

	s.attached[building] = struct{}{}
	s.log.Debug().Str("building", building).Msg("partition attached")
	return nil
}
