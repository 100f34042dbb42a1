package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdn/towerdesk/internal/logging"
	"github.com/minhdn/towerdesk/internal/tenant"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func boundCtx(building string) context.Context {
	return tenant.Bind(context.Background(), building)
}

func TestQueryWithoutTenantFails(t *testing.T) {
	s := testStore(t)
	_, err := s.Query(context.Background(), "SELECT * FROM {schema}.floors")
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestExecWithoutTenantFails(t *testing.T) {
	s := testStore(t)
	_, err := s.Exec(context.Background(), "DELETE FROM {schema}.floors")
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestInvalidTenantIDRejected(t *testing.T) {
	s := testStore(t)
	ctx := boundCtx("evil; DROP TABLE users")
	_, err := s.Query(ctx, "SELECT * FROM {schema}.floors")
	assert.ErrorIs(t, err, ErrBadTenantID)
}

func TestSeedAndQuery(t *testing.T) {
	s := testStore(t)
	ctx := boundCtx("buildingA")
	require.NoError(t, s.Seed(ctx))

	rows, err := s.Query(ctx, "SELECT code, name FROM {schema}.service_types WHERE code = ?", "MGMT_FEE")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MGMT_FEE", rows[0]["code"])
	assert.Equal(t, "Phí quản lý", rows[0]["name"])
}

func TestExecReportsAffectedRows(t *testing.T) {
	s := testStore(t)
	ctx := boundCtx("buildingA")
	require.NoError(t, s.Seed(ctx))

	n, err := s.Exec(ctx, "UPDATE {schema}.apartments SET status = 'OCCUPIED' WHERE status = 'AVAILABLE'")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPartitionsAreIsolated(t *testing.T) {
	s := testStore(t)
	ctxA := boundCtx("buildingA")
	ctxB := boundCtx("buildingB")

	require.NoError(t, s.EnsureSchema(ctxA))
	require.NoError(t, s.EnsureSchema(ctxB))

	_, err := s.Exec(ctxA, "INSERT INTO {schema}.floors (floor_number, name) VALUES (?, ?)", 1, "A ground")
	require.NoError(t, err)

	rowsA, err := s.Query(ctxA, "SELECT name FROM {schema}.floors")
	require.NoError(t, err)
	require.Len(t, rowsA, 1)
	assert.Equal(t, "A ground", rowsA[0]["name"])

	rowsB, err := s.Query(ctxB, "SELECT name FROM {schema}.floors")
	require.NoError(t, err)
	assert.Empty(t, rowsB)
}

func TestQueryFailureIsWrappedNotRetried(t *testing.T) {
	s := testStore(t)
	ctx := boundCtx("buildingA")
	require.NoError(t, s.EnsureSchema(ctx))

	_, err := s.Query(ctx, "SELECT * FROM {schema}.no_such_table")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTenant)
}
