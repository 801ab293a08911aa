package postgres

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"Quad/internal/db/migrations"
)

var (
	containerOnce sync.Once
	container     *tcpostgres.PostgresContainer
	containerDSN  string
	containerErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if container != nil {
		_ = testcontainers.TerminateContainer(container)
	}
	os.Exit(code)
}

// testDSN returns TEST_DATABASE_URL, or starts a throwaway Postgres container once per package
func testDSN(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	containerOnce.Do(func() {
		ctx := context.Background()
		container, containerErr = tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("quad_test"),
			tcpostgres.WithUsername("test_user"),
			tcpostgres.WithPassword("test_password"),
			tcpostgres.BasicWaitStrategies(),
		)
		if containerErr != nil {
			return
		}
		containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	require.NoError(t, containerErr, "Failed to start postgres container")
	return containerDSN
}

// setupTestDB opens a connection and runs migrations
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", testDSN(t))
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(db, ""), "Failed to run migrations")

	return db
}

// createTestUser creates a minimal user for foreign key constraints
func createTestUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO users (id, display_name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO NOTHING`, id, "Test "+id)
	require.NoError(t, err, "Failed to create test user")
}

// createTestPost inserts a post with a fixed creation time
func createTestPost(t *testing.T, db *sql.DB, id, authorID string, createdAt time.Time) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO posts (id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)`, id, authorID, "body of "+id, createdAt)
	require.NoError(t, err, "Failed to create test post")
}

// cleanup removes everything a test created under the given id prefix
func cleanup(t *testing.T, db *sql.DB, prefix string) {
	t.Helper()
	_, err := db.Exec(`DELETE FROM posts WHERE id LIKE $1 OR author_id LIKE $1`, prefix+"%")
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM users WHERE id LIKE $1`, prefix+"%")
	require.NoError(t, err)
}
