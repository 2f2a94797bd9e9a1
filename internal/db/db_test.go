package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/accord/internal/config"
)

func TestBuildDSN(t *testing.T) {
	require.Equal(t, "postgres://x", BuildDSN(config.DatabaseConfig{DSN: "postgres://x"}))
	require.Equal(t,
		"host=h port=5432 user=u password=p dbname=d sslmode=disable",
		BuildDSN(config.DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d"}),
	)
}

func TestMigrationQueriesCoverTables(t *testing.T) {
	queries, files, err := migrationQueries()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	joined := ""
	for _, file := range files {
		for _, q := range queries[file] {
			joined += q + "\n"
		}
	}
	for _, table := range []string{"users", "documents", "document_collaborators", "document_signatures", "comments", "notifications"} {
		require.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestApplyMigrationsExecutesEveryStatement(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	queries, files, err := migrationQueries()
	require.NoError(t, err)
	for _, file := range files {
		for range queries[file] {
			mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}
	require.NoError(t, ApplyMigrations(conn))
	require.NoError(t, mock.ExpectationsWereMet())
}
