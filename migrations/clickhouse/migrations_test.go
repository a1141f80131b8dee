package clickhouse_test

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
)

// TestClickhouseMigrations проверяет миграцию таблицы tracking_events
func TestClickhouseMigrations(t *testing.T) {
	dsn := os.Getenv("CLICKHOUSE_TEST_DSN")
	if dsn == "" {
		t.Skip("CLICKHOUSE_TEST_DSN env var not set; skipping ClickHouse migration tests")
	}

	db, err := sql.Open("clickhouse", dsn)
	require.NoError(t, err, "ошибка при открытии соединения с ClickHouse")
	defer func() {
		require.NoError(t, db.Close(), "ошибка при закрытии соединения с ClickHouse")
	}()

	drv, err := clickhouse.WithInstance(db, &clickhouse.Config{})
	require.NoError(t, err, "failed to create ClickHouse migrate driver")
	m, err := migrate.NewWithDatabaseInstance("file://.", "clickhouse", drv)
	require.NoError(t, err, "failed to create ClickHouse migrate instance")
	_ = m.Down()
	require.NoError(t, m.Up(), "failed to apply ClickHouse migrations")

	var existsTable int
	err = db.QueryRow(
		"SELECT count() FROM system.tables WHERE database=currentDatabase() AND name='tracking_events'",
	).Scan(&existsTable)
	require.NoError(t, err)
	require.Equal(t, 1, existsTable, "tracking_events должна существовать после migrate Up")

	// ------------------------- Структура таблицы -------------------------
	expected := map[string]string{
		"EventType":  "LowCardinality(String)",
		"EntityId":   "Int64",
		"Actor":      "String",
		"Payload":    "String",
		"OccurredAt": "DateTime",
	}
	rows, err := db.Query(
		"SELECT name, type FROM system.columns WHERE database = currentDatabase() AND table = 'tracking_events'",
	)
	require.NoError(t, err)
	found := make(map[string]string)
	for rows.Next() {
		var name, ctype string
		require.NoError(t, rows.Scan(&name, &ctype))
		found[name] = ctype
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	require.Equal(t, expected, found)

	// ------------------------- Откат -------------------------
	require.NoError(t, m.Steps(-1), "failed to rollback ClickHouse migrations")
	err = db.QueryRow(
		"SELECT count() FROM system.tables WHERE database=currentDatabase() AND name='tracking_events'",
	).Scan(&existsTable)
	require.NoError(t, err)
	require.Equal(t, 0, existsTable, "tracking_events должна быть удалена после migrate Down")
}
