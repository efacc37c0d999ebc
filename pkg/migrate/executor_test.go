package migrate

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB returns an in-memory SQLite database with a ledger table whose
// declared column types SQLite maps back to Go values. EnsureTable keeps it
// as is because it only creates the table when missing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE schema_migrations (
			version            bigint    NOT NULL PRIMARY KEY,
			name               text      NOT NULL,
			up_script_type     text      NOT NULL,
			up_script_sha256   blob      NOT NULL,
			down_script_type   text,
			down_script_sha256 blob,
			applied_at         timestamp NOT NULL,
			execution_time_ms  bigint    NOT NULL
		)`)
	require.NoError(t, err)
	return db
}

func dictionaryMigrations(t *testing.T) []LocalMigration {
	t.Helper()
	fsys := fstest.MapFS{
		"M0001_init/up.sql":   {Data: []byte(`CREATE TABLE words (id integer PRIMARY KEY, lemma text NOT NULL)`)},
		"M0001_init/down.sql": {Data: []byte(`DROP TABLE words`)},

		"M0002_add-categories/up.sql":   {Data: []byte(`CREATE TABLE categories (id integer PRIMARY KEY, name text NOT NULL)`)},
		"M0002_add-categories/down.sql": {Data: []byte(`DROP TABLE categories`)},

		"M0003_add-translations/up.sql":   {Data: []byte(`CREATE TABLE translations (word_id integer NOT NULL, other_id integer NOT NULL)`)},
		"M0003_add-translations/down.sql": {Data: []byte(`DROP TABLE translations`)},
	}
	migrations, err := LoadLocal(fsys, nil, discardLogger())
	require.NoError(t, err)
	return migrations
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, name,
	).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func TestEngineUpAndDown(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	engine := NewEngine(db, dictionaryMigrations(t), discardLogger())
	require.NoError(t, engine.Initialize(ctx))

	applied, err := engine.Up(ctx, math.MaxInt64)
	require.NoError(t, err)
	require.Len(t, applied, 3)
	assert.Equal(t, int64(1), applied[0].Version)
	assert.Equal(t, int64(2), applied[1].Version)
	assert.Equal(t, int64(3), applied[2].Version)

	assert.True(t, tableExists(t, db, "words"))
	assert.True(t, tableExists(t, db, "categories"))
	assert.True(t, tableExists(t, db, "translations"))

	status, err := engine.Status(ctx)
	require.NoError(t, err)
	for _, migration := range status {
		assert.Equal(t, StatusApplied, migration.Status)
		assert.False(t, migration.AppliedAt.IsZero())
	}

	// Rerunning up is a no-op.
	applied, err = engine.Up(ctx, math.MaxInt64)
	require.NoError(t, err)
	assert.Empty(t, applied)

	// Roll back everything above version 1, newest first.
	rolledBack, err := engine.Down(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rolledBack, 2)
	assert.Equal(t, int64(3), rolledBack[0].Version)
	assert.Equal(t, int64(2), rolledBack[1].Version)

	assert.True(t, tableExists(t, db, "words"))
	assert.False(t, tableExists(t, db, "categories"))
	assert.False(t, tableExists(t, db, "translations"))

	status, err = engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status[0].Status)
	assert.Equal(t, StatusPending, status[1].Status)
	assert.Equal(t, StatusPending, status[2].Status)
}

func TestEngineUpStopsAtTarget(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	engine := NewEngine(db, dictionaryMigrations(t), discardLogger())
	require.NoError(t, engine.Initialize(ctx))

	applied, err := engine.Up(ctx, 2)
	require.NoError(t, err)
	require.Len(t, applied, 2)

	assert.True(t, tableExists(t, db, "categories"))
	assert.False(t, tableExists(t, db, "translations"))
}

func TestEngineRollbackUndefined(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	fsys := fstest.MapFS{
		"M0001_irreversible/up.sql": {Data: []byte(`CREATE TABLE once (id integer)`)},
	}
	local, err := LoadLocal(fsys, nil, discardLogger())
	require.NoError(t, err)

	engine := NewEngine(db, local, discardLogger())
	require.NoError(t, engine.Initialize(ctx))

	_, err = engine.Up(ctx, math.MaxInt64)
	require.NoError(t, err)

	_, err = engine.Down(ctx, 0)
	assert.ErrorIs(t, err, ErrRollbackUndefined)

	// The ledger row survives the refused rollback.
	status, err := engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status[0].Status)
}

func TestEngineFailedMigrationLeavesNoLedgerRow(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	fsys := fstest.MapFS{
		"M0001_good/up.sql": {Data: []byte(`CREATE TABLE good (id integer)`)},
		"M0002_bad/up.sql":  {Data: []byte(`CREATE TABLE bad (id integer); INSERT INTO nonexistent VALUES (1)`)},
	}
	local, err := LoadLocal(fsys, nil, discardLogger())
	require.NoError(t, err)

	engine := NewEngine(db, local, discardLogger())
	require.NoError(t, engine.Initialize(ctx))

	applied, err := engine.Up(ctx, math.MaxInt64)
	require.Error(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, int64(1), applied[0].Version)

	// The failing migration ran inside a transaction: neither its table nor
	// its ledger row exists.
	assert.False(t, tableExists(t, db, "bad"))
	status, err := engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status[0].Status)
	assert.Equal(t, StatusPending, status[1].Status)
}

func TestEngineDetectsDriftAfterApply(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	engine := NewEngine(db, dictionaryMigrations(t), discardLogger())
	require.NoError(t, engine.Initialize(ctx))

	_, err := engine.Up(ctx, math.MaxInt64)
	require.NoError(t, err)

	// Same versions and names, but the first up script was edited.
	edited := dictionaryMigrations(t)
	edited[0].Up = NewSQLScript([]byte(`CREATE TABLE words (id integer PRIMARY KEY, lemma text, extra text)`))

	driftedEngine := NewEngine(db, edited, discardLogger())
	_, err = driftedEngine.Status(ctx)
	var mismatch *HashMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(1), mismatch.Version)
}

func TestEngineRunsGoMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	fsys := fstest.MapFS{
		"M0001_schema/up.sql": {Data: []byte(`CREATE TABLE seeded (id integer PRIMARY KEY, name text NOT NULL)`)},
		"M0002_seed/migration.toml": {Data: []byte(ConfigurationTemplate)},
	}
	goScripts := map[string]GoScripts{
		"M0002_seed": {
			Up: func(ctx context.Context, db Execer) error {
				_, err := db.ExecContext(ctx, `INSERT INTO seeded (id, name) VALUES ($1, $2)`, 1, "beseda")
				return err
			},
			UpSource: []byte("seed v1"),
			Down: func(ctx context.Context, db Execer) error {
				_, err := db.ExecContext(ctx, `DELETE FROM seeded`)
				return err
			},
			DownSource: []byte("unseed v1"),
		},
	}
	local, err := LoadLocal(fsys, goScripts, discardLogger())
	require.NoError(t, err)

	engine := NewEngine(db, local, discardLogger())
	require.NoError(t, engine.Initialize(ctx))

	_, err = engine.Up(ctx, math.MaxInt64)
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM seeded WHERE id = 1`).Scan(&name))
	assert.Equal(t, "beseda", name)

	// The ledger recorded the Go script kind.
	var upKind string
	require.NoError(t, db.QueryRow(
		`SELECT up_script_type FROM schema_migrations WHERE version = 2`).Scan(&upKind))
	assert.Equal(t, string(ScriptKindGo), upKind)

	_, err = engine.Down(ctx, 1)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM seeded`).Scan(&count))
	assert.Equal(t, 0, count)
}
