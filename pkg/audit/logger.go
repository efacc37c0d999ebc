package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger writes and reads the audit trail. Recording failures are logged
// and swallowed so an unreachable audit table never fails the operation
// being audited.
type Logger struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewLogger creates an audit logger over the given database.
func NewLogger(db *sql.DB, log *logrus.Logger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{db: db, log: log}
}

// Record appends an event to the trail.
func (l *Logger) Record(ctx context.Context, eventType EventType, actorID, targetID *uuid.UUID, detail string) {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_log (event_type, actor_id, target_id, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(eventType), actorID, targetID, detail, time.Now().UTC(),
	)
	if err != nil {
		l.log.WithError(err).WithField("event_type", string(eventType)).
			Error("failed to record audit event")
	}
}

// RecentForUser returns the newest events where the user is actor or
// target, newest first.
func (l *Logger) RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, event_type, actor_id, target_id, detail, created_at
		   FROM audit_log
		  WHERE actor_id = $1 OR target_id = $1
		  ORDER BY created_at DESC
		  LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			eventType string
		)
		if err := rows.Scan(&event.ID, &eventType, &event.ActorID, &event.TargetID, &event.Detail, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Type = EventType(eventType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit events: %w", err)
	}
	return events, nil
}

// Cleanup removes events older than the retention period and reports how
// many rows were deleted.
func (l *Logger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := l.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < $1`,
		time.Now().UTC().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up audit log: %w", err)
	}
	return result.RowsAffected()
}
