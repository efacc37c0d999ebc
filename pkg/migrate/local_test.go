package migrate

import (
	"context"
	"io"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLoadLocal(t *testing.T) {
	t.Run("loads sorted by version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"M0003_third/up.sql":  {Data: []byte("CREATE TABLE third ()")},
			"M0001_first/up.sql":  {Data: []byte("CREATE TABLE first ()")},
			"M0002_second/up.sql": {Data: []byte("CREATE TABLE second ()")},
		}

		migrations, err := LoadLocal(fsys, nil, discardLogger())
		require.NoError(t, err)
		require.Len(t, migrations, 3)
		assert.Equal(t, int64(1), migrations[0].Identifier.Version)
		assert.Equal(t, int64(2), migrations[1].Identifier.Version)
		assert.Equal(t, int64(3), migrations[2].Identifier.Version)
	})

	t.Run("down script is optional", func(t *testing.T) {
		fsys := fstest.MapFS{
			"M0001_with-down/up.sql":      {Data: []byte("CREATE TABLE a ()")},
			"M0001_with-down/down.sql":    {Data: []byte("DROP TABLE a")},
			"M0002_without-down/up.sql":   {Data: []byte("CREATE TABLE b ()")},
		}

		migrations, err := LoadLocal(fsys, nil, discardLogger())
		require.NoError(t, err)
		assert.True(t, migrations[0].HasDown())
		assert.False(t, migrations[1].HasDown())
	})

	t.Run("missing up script is fatal", func(t *testing.T) {
		fsys := fstest.MapFS{
			"M0001_broken/down.sql": {Data: []byte("DROP TABLE a")},
		}

		_, err := LoadLocal(fsys, nil, discardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "up.sql")
	})

	t.Run("duplicate version is fatal", func(t *testing.T) {
		fsys := fstest.MapFS{
			"M0001_first/up.sql":  {Data: []byte("CREATE TABLE a ()")},
			"M0001_second/up.sql": {Data: []byte("CREATE TABLE b ()")},
		}

		_, err := LoadLocal(fsys, nil, discardLogger())
		var duplicate *DuplicateVersionError
		require.ErrorAs(t, err, &duplicate)
		assert.Equal(t, int64(1), duplicate.Version)
	})

	t.Run("duplicate name only warns", func(t *testing.T) {
		fsys := fstest.MapFS{
			"M0001_same/up.sql": {Data: []byte("CREATE TABLE a ()")},
			"M0002_same/up.sql": {Data: []byte("CREATE TABLE b ()")},
		}

		migrations, err := LoadLocal(fsys, nil, discardLogger())
		require.NoError(t, err)
		assert.Len(t, migrations, 2)
	})

	t.Run("invalid directory name is fatal", func(t *testing.T) {
		fsys := fstest.MapFS{
			"not-a-migration/up.sql": {Data: []byte("CREATE TABLE a ()")},
		}

		_, err := LoadLocal(fsys, nil, discardLogger())
		assert.Error(t, err)
	})

	t.Run("loose files at the root are ignored", func(t *testing.T) {
		fsys := fstest.MapFS{
			"README.md":          {Data: []byte("docs")},
			"M0001_first/up.sql": {Data: []byte("CREATE TABLE a ()")},
		}

		migrations, err := LoadLocal(fsys, nil, discardLogger())
		require.NoError(t, err)
		assert.Len(t, migrations, 1)
	})

	t.Run("configuration file is honored", func(t *testing.T) {
		fsys := fstest.MapFS{
			"M0001_concurrent/up.sql": {Data: []byte("CREATE INDEX CONCURRENTLY idx ON t (c)")},
			"M0001_concurrent/migration.toml": {Data: []byte(`
[up]
run_inside_transaction = false
`)},
		}

		migrations, err := LoadLocal(fsys, nil, discardLogger())
		require.NoError(t, err)
		assert.False(t, migrations[0].Configuration.UpRunInsideTransaction)
		assert.True(t, migrations[0].Configuration.DownRunInsideTransaction)
	})

	t.Run("go scripts take the place of sql files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"M0001_in-go/migration.toml": {Data: []byte(ConfigurationTemplate)},
		}
		goScripts := map[string]GoScripts{
			"M0001_in-go": {
				Up:       func(ctx context.Context, db Execer) error { return nil },
				UpSource: []byte("seed v1"),
			},
		}

		migrations, err := LoadLocal(fsys, goScripts, discardLogger())
		require.NoError(t, err)
		require.Len(t, migrations, 1)
		assert.Equal(t, ScriptKindGo, migrations[0].Up.Kind())
		assert.Equal(t, NewHash([]byte("seed v1")), migrations[0].Up.Hash())
		assert.False(t, migrations[0].HasDown())
	})
}

func TestScriptHashesFollowContent(t *testing.T) {
	first := NewSQLScript([]byte("CREATE TABLE a ()"))
	same := NewSQLScript([]byte("CREATE TABLE a ()"))
	different := NewSQLScript([]byte("CREATE TABLE b ()"))

	assert.True(t, first.Hash().Equal(same.Hash()))
	assert.False(t, first.Hash().Equal(different.Hash()))
}

func TestHashFromBytes(t *testing.T) {
	hash := NewHash([]byte("content"))

	restored, err := HashFromBytes(hash.Bytes())
	require.NoError(t, err)
	assert.True(t, hash.Equal(restored))

	_, err = HashFromBytes([]byte("too short"))
	assert.Error(t, err)
	_, err = HashFromBytes(append(hash.Bytes(), 0x00))
	assert.Error(t, err)
}
