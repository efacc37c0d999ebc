package migrate

import (
	"sort"
	"time"
)

// Status is the reconciled state of one migration.
type Status int

const (
	// StatusPending means the migration exists locally but has not been
	// applied to the database.
	StatusPending Status = iota
	// StatusApplied means the migration is recorded in the ledger.
	StatusApplied
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// Migration is a local migration annotated with its reconciled status.
// AppliedAt is only meaningful when Status is StatusApplied.
type Migration struct {
	LocalMigration

	Status    Status
	AppliedAt time.Time
}

// Reconcile matches the local migration set against the ledger and assigns
// each migration a status. Drift is fatal: an applied migration that has
// disappeared locally, been renamed, or had its script content (including
// the presence or absence of a down script) changed aborts reconciliation.
// The result is sorted by ascending version, and reconciling is idempotent;
// it performs no writes.
func Reconcile(local []LocalMigration, remote []RemoteMigration) ([]Migration, error) {
	localByVersion := make(map[int64]LocalMigration, len(local))
	for _, migration := range local {
		localByVersion[migration.Identifier.Version] = migration
	}

	appliedAt := make(map[int64]time.Time, len(remote))
	for _, applied := range remote {
		matching, exists := localByVersion[applied.Version]
		if !exists {
			return nil, &MissingLocalError{Version: applied.Version, Name: applied.Name}
		}
		if matching.Identifier.Name != applied.Name {
			return nil, &NameMismatchError{
				Version:    applied.Version,
				LocalName:  matching.Identifier.Name,
				RemoteName: applied.Name,
			}
		}
		if err := compareScripts(matching, applied); err != nil {
			return nil, err
		}
		appliedAt[applied.Version] = applied.AppliedAt
	}

	migrations := make([]Migration, 0, len(local))
	for _, migration := range local {
		reconciled := Migration{LocalMigration: migration, Status: StatusPending}
		if at, applied := appliedAt[migration.Identifier.Version]; applied {
			reconciled.Status = StatusApplied
			reconciled.AppliedAt = at
		}
		migrations = append(migrations, reconciled)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Identifier.Version < migrations[j].Identifier.Version
	})
	return migrations, nil
}

func compareScripts(local LocalMigration, applied RemoteMigration) error {
	if !local.Up.Hash().Equal(applied.UpHash) {
		localHash := local.Up.Hash()
		return &HashMismatchError{
			Version:    applied.Version,
			Name:       applied.Name,
			Direction:  "up",
			LocalHash:  &localHash,
			RemoteHash: &applied.UpHash,
		}
	}

	switch {
	case local.Down == nil && applied.DownHash == nil:
		return nil
	case local.Down == nil:
		return &HashMismatchError{
			Version:    applied.Version,
			Name:       applied.Name,
			Direction:  "down",
			RemoteHash: applied.DownHash,
		}
	case applied.DownHash == nil:
		localHash := local.Down.Hash()
		return &HashMismatchError{
			Version:   applied.Version,
			Name:      applied.Name,
			Direction: "down",
			LocalHash: &localHash,
		}
	case !local.Down.Hash().Equal(*applied.DownHash):
		localHash := local.Down.Hash()
		return &HashMismatchError{
			Version:    applied.Version,
			Name:       applied.Name,
			Direction:  "down",
			LocalHash:  &localHash,
			RemoteHash: applied.DownHash,
		}
	}
	return nil
}
