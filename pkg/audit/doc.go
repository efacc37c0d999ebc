// Package audit records security-relevant events to a database table:
// logins, failed logins, and role grants or revocations. The trail is
// append-only; cleanup by retention period is the only deletion path.
package audit
