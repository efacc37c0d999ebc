package migrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localMigration(version int64, name, up string, down *string) LocalMigration {
	migration := LocalMigration{
		Identifier:    Identifier{Version: version, Name: name},
		Configuration: DefaultConfiguration(),
		Up:            NewSQLScript([]byte(up)),
	}
	if down != nil {
		script := NewSQLScript([]byte(*down))
		migration.Down = &script
	}
	return migration
}

func remoteFor(migration LocalMigration, appliedAt time.Time) RemoteMigration {
	remote := RemoteMigration{
		Version:   migration.Identifier.Version,
		Name:      migration.Identifier.Name,
		UpKind:    migration.Up.Kind(),
		UpHash:    migration.Up.Hash(),
		AppliedAt: appliedAt,
	}
	if migration.Down != nil {
		kind := migration.Down.Kind()
		hash := migration.Down.Hash()
		remote.DownKind = &kind
		remote.DownHash = &hash
	}
	return remote
}

func TestReconcile(t *testing.T) {
	down := "DROP TABLE a"
	first := localMigration(1, "first", "CREATE TABLE a ()", &down)
	second := localMigration(2, "second", "CREATE TABLE b ()", nil)
	appliedAt := time.Now().UTC().Truncate(time.Second)

	t.Run("splits applied and pending", func(t *testing.T) {
		migrations, err := Reconcile(
			[]LocalMigration{second, first},
			[]RemoteMigration{remoteFor(first, appliedAt)},
		)
		require.NoError(t, err)
		require.Len(t, migrations, 2)

		assert.Equal(t, int64(1), migrations[0].Identifier.Version)
		assert.Equal(t, StatusApplied, migrations[0].Status)
		assert.Equal(t, appliedAt, migrations[0].AppliedAt)

		assert.Equal(t, int64(2), migrations[1].Identifier.Version)
		assert.Equal(t, StatusPending, migrations[1].Status)
	})

	t.Run("is idempotent", func(t *testing.T) {
		local := []LocalMigration{first, second}
		remote := []RemoteMigration{remoteFor(first, appliedAt)}

		once, err := Reconcile(local, remote)
		require.NoError(t, err)
		twice, err := Reconcile(local, remote)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("empty ledger leaves everything pending", func(t *testing.T) {
		migrations, err := Reconcile([]LocalMigration{first, second}, nil)
		require.NoError(t, err)
		for _, migration := range migrations {
			assert.Equal(t, StatusPending, migration.Status)
		}
	})

	t.Run("applied migration missing locally is fatal", func(t *testing.T) {
		_, err := Reconcile(
			[]LocalMigration{second},
			[]RemoteMigration{remoteFor(first, appliedAt)},
		)
		var missing *MissingLocalError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, int64(1), missing.Version)
		assert.Equal(t, "first", missing.Name)
	})

	t.Run("renamed migration is fatal", func(t *testing.T) {
		renamed := localMigration(1, "renamed", "CREATE TABLE a ()", &down)
		_, err := Reconcile(
			[]LocalMigration{renamed},
			[]RemoteMigration{remoteFor(first, appliedAt)},
		)
		var mismatch *NameMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "renamed", mismatch.LocalName)
		assert.Equal(t, "first", mismatch.RemoteName)
	})

	t.Run("edited up script is fatal", func(t *testing.T) {
		edited := localMigration(1, "first", "CREATE TABLE a (id bigint)", &down)
		_, err := Reconcile(
			[]LocalMigration{edited},
			[]RemoteMigration{remoteFor(first, appliedAt)},
		)
		var mismatch *HashMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "up", mismatch.Direction)
		require.NotNil(t, mismatch.LocalHash)
		require.NotNil(t, mismatch.RemoteHash)
	})

	t.Run("edited down script is fatal", func(t *testing.T) {
		otherDown := "DROP TABLE a CASCADE"
		edited := localMigration(1, "first", "CREATE TABLE a ()", &otherDown)
		_, err := Reconcile(
			[]LocalMigration{edited},
			[]RemoteMigration{remoteFor(first, appliedAt)},
		)
		var mismatch *HashMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "down", mismatch.Direction)
	})

	t.Run("down script removed after apply is fatal", func(t *testing.T) {
		withoutDown := localMigration(1, "first", "CREATE TABLE a ()", nil)
		_, err := Reconcile(
			[]LocalMigration{withoutDown},
			[]RemoteMigration{remoteFor(first, appliedAt)},
		)
		var mismatch *HashMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "down", mismatch.Direction)
		assert.Nil(t, mismatch.LocalHash)
		assert.NotNil(t, mismatch.RemoteHash)
	})

	t.Run("down script added after apply is fatal", func(t *testing.T) {
		appliedWithout := localMigration(1, "first", "CREATE TABLE a ()", nil)
		_, err := Reconcile(
			[]LocalMigration{first},
			[]RemoteMigration{remoteFor(appliedWithout, appliedAt)},
		)
		var mismatch *HashMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "down", mismatch.Direction)
		assert.NotNil(t, mismatch.LocalHash)
		assert.Nil(t, mismatch.RemoteHash)
	})
}

func TestPlanSelection(t *testing.T) {
	down := "DROP TABLE x"
	migrations := []Migration{
		{LocalMigration: localMigration(1, "one", "a", &down), Status: StatusApplied},
		{LocalMigration: localMigration(2, "two", "b", &down), Status: StatusApplied},
		{LocalMigration: localMigration(3, "three", "c", &down), Status: StatusPending},
		{LocalMigration: localMigration(4, "four", "d", &down), Status: StatusPending},
	}

	t.Run("pending up to target ascending", func(t *testing.T) {
		selected := PendingUpTo(migrations, 3)
		require.Len(t, selected, 1)
		assert.Equal(t, int64(3), selected[0].Identifier.Version)

		selected = PendingUpTo(migrations, 10)
		require.Len(t, selected, 2)
		assert.Equal(t, int64(3), selected[0].Identifier.Version)
		assert.Equal(t, int64(4), selected[1].Identifier.Version)
	})

	t.Run("applied above target descending", func(t *testing.T) {
		selected := AppliedAbove(migrations, 0)
		require.Len(t, selected, 2)
		assert.Equal(t, int64(2), selected[0].Identifier.Version)
		assert.Equal(t, int64(1), selected[1].Identifier.Version)

		selected = AppliedAbove(migrations, 1)
		require.Len(t, selected, 1)
		assert.Equal(t, int64(2), selected[0].Identifier.Version)
	})
}
