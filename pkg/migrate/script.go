package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// ScriptKind discriminates the two ways a migration step can be expressed.
type ScriptKind string

const (
	// ScriptKindSQL is a raw SQL file executed verbatim.
	ScriptKindSQL ScriptKind = "sql"
	// ScriptKindGo is a registered Go function.
	ScriptKindGo ScriptKind = "go"
)

// Execer is the subset of database handle behaviour a script needs. Both
// *sql.DB and *sql.Tx satisfy it, which lets the executor run the same
// script inside or outside a transaction depending on configuration.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// GoMigration is the signature of a Go-implemented migration step.
type GoMigration func(ctx context.Context, db Execer) error

// Script is one direction of a migration: either SQL text or a Go function,
// always with a content hash. For SQL scripts the hash covers the file
// bytes; for Go scripts it covers the registered source snapshot, so edits
// to applied Go migrations are caught the same way edited SQL is.
type Script struct {
	kind ScriptKind
	hash Hash

	sqlText string
	goFunc  GoMigration
}

// NewSQLScript builds a script from raw SQL file content.
func NewSQLScript(content []byte) Script {
	return Script{
		kind:    ScriptKindSQL,
		hash:    NewHash(content),
		sqlText: string(content),
	}
}

// NewGoScript builds a script from a registered Go function and the source
// snapshot it is hashed over.
func NewGoScript(fn GoMigration, source []byte) Script {
	return Script{
		kind:   ScriptKindGo,
		hash:   NewHash(source),
		goFunc: fn,
	}
}

// Kind returns the script's variant.
func (s Script) Kind() ScriptKind {
	return s.kind
}

// Hash returns the script's content hash.
func (s Script) Hash() Hash {
	return s.hash
}

// Run executes the script against db.
func (s Script) Run(ctx context.Context, db Execer) error {
	switch s.kind {
	case ScriptKindSQL:
		if _, err := db.ExecContext(ctx, s.sqlText); err != nil {
			return fmt.Errorf("executing SQL script: %w", err)
		}
		return nil
	case ScriptKindGo:
		if err := s.goFunc(ctx, db); err != nil {
			return fmt.Errorf("executing Go script: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown script kind %q", s.kind)
	}
}
