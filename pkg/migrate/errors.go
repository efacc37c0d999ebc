package migrate

import (
	"errors"
	"fmt"
)

// ErrRollbackUndefined is returned when a rollback is requested for a
// migration that has no down script.
var ErrRollbackUndefined = errors.New("migration does not define a rollback script")

// DuplicateVersionError indicates two local migration directories share a
// version number.
type DuplicateVersionError struct {
	Version int64
	First   string
	Second  string
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("duplicate migration version %d: %s and %s", e.Version, e.First, e.Second)
}

// MissingLocalError indicates the ledger records an applied migration that
// no longer exists locally. This is unrecoverable without restoring the
// migration sources.
type MissingLocalError struct {
	Version int64
	Name    string
}

func (e *MissingLocalError) Error() string {
	return fmt.Sprintf("migration %d (%s) is recorded as applied but does not exist locally", e.Version, e.Name)
}

// NameMismatchError indicates a local migration was renamed after being
// applied.
type NameMismatchError struct {
	Version    int64
	LocalName  string
	RemoteName string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("migration %d is named %q locally but was applied as %q", e.Version, e.LocalName, e.RemoteName)
}

// HashMismatchError indicates a local migration's script content no longer
// matches what was applied, including the case where a down script was
// added or removed after the fact.
type HashMismatchError struct {
	Version    int64
	Name       string
	Direction  string
	LocalHash  *Hash
	RemoteHash *Hash
}

func (e *HashMismatchError) Error() string {
	local := "absent"
	if e.LocalHash != nil {
		local = e.LocalHash.String()
	}
	remote := "absent"
	if e.RemoteHash != nil {
		remote = e.RemoteHash.String()
	}
	return fmt.Sprintf(
		"migration %d (%s) has a modified %s script: local hash %s, applied hash %s",
		e.Version, e.Name, e.Direction, local, remote,
	)
}

// InvalidRowError indicates the ledger contains a row the engine cannot
// interpret, such as a hash column of the wrong length.
type InvalidRowError struct {
	Version int64
	Reason  string
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("invalid migration ledger row for version %d: %s", e.Version, e.Reason)
}
