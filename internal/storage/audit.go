package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Record is one verified inbound interaction. Request bodies are never stored.
type Record struct {
	ID            string    `json:"id"`
	InteractionID string    `json:"interaction_id,omitempty"`
	Type          int       `json:"type"`
	Command       string    `json:"command,omitempty"`
	Status        int       `json:"status"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

// PublishRecord is one successful command registration.
type PublishRecord struct {
	Fingerprint string    `json:"fingerprint"`
	Count       int       `json:"count"`
	Endpoint    string    `json:"endpoint"`
	PublishedAt time.Time `json:"published_at"`
}

// AuditLog stores interaction and publish history.
type AuditLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewAuditLog wraps an opened database.
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db, now: time.Now}
}

// Record inserts rec, assigning an ID and timestamp when missing.
func (a *AuditLog) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = a.now()
	}

	_, err := a.db.ExecContext(ctx, `
INSERT INTO interaction_log(id, interaction_id, type, command, status, error_kind, received_at)
VALUES(?, ?, ?, ?, ?, ?, ?);`,
		rec.ID,
		nullString(rec.InteractionID),
		rec.Type,
		nullString(rec.Command),
		rec.Status,
		nullString(rec.ErrorKind),
		rec.ReceivedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert interaction record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	rows, err := a.db.QueryContext(ctx, `
SELECT id, interaction_id, type, command, status, error_kind, received_at
FROM interaction_log
ORDER BY received_at DESC, rowid DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("query interaction records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                             Record
			interactionID, command, errKind sql.NullString
			receivedAt                      string
		)
		if err := rows.Scan(&rec.ID, &interactionID, &rec.Type, &command, &rec.Status, &errKind, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan interaction record: %w", err)
		}
		rec.InteractionID = interactionID.String
		rec.Command = command.String
		rec.ErrorKind = errKind.String
		rec.ReceivedAt, err = time.Parse(timeLayout, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("parse received_at %q: %w", receivedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordPublish notes a successful registration of count commands.
func (a *AuditLog) RecordPublish(ctx context.Context, rec PublishRecord) error {
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = a.now()
	}
	_, err := a.db.ExecContext(ctx, `
INSERT INTO command_publish(fingerprint, count, endpoint, published_at)
VALUES(?, ?, ?, ?);`,
		rec.Fingerprint, rec.Count, rec.Endpoint, rec.PublishedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert publish record: %w", err)
	}
	return nil
}

// LastPublish returns the most recent publish record. ok is false when
// nothing has been published yet.
func (a *AuditLog) LastPublish(ctx context.Context) (rec PublishRecord, ok bool, err error) {
	var publishedAt string
	err = a.db.QueryRowContext(ctx, `
SELECT fingerprint, count, endpoint, published_at
FROM command_publish
ORDER BY id DESC
LIMIT 1;`).Scan(&rec.Fingerprint, &rec.Count, &rec.Endpoint, &publishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PublishRecord{}, false, nil
	}
	if err != nil {
		return PublishRecord{}, false, fmt.Errorf("query last publish: %w", err)
	}
	rec.PublishedAt, err = time.Parse(timeLayout, publishedAt)
	if err != nil {
		return PublishRecord{}, false, fmt.Errorf("parse published_at %q: %w", publishedAt, err)
	}
	return rec, true, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
