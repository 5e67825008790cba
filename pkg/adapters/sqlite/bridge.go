// Package sqlite is an environment bridge that records every submission in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	_ "modernc.org/sqlite"
)

// Entry kinds.
const (
	KindLoad   = "load"
	KindSubmit = "submit"
	KindUpdate = "update"
	KindSkip   = "skip"
	KindDraft  = "draft"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	task_id       TEXT NOT NULL DEFAULT '',
	annotation_id TEXT NOT NULL DEFAULT '',
	kind          TEXT NOT NULL,
	payload       TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_task ON entries(task_id, kind);
`

// Entry is one recorded bridge call.
type Entry struct {
	ID           int64
	SessionID    string
	TaskID       string
	AnnotationID string
	Kind         string
	Record       *domain.AnnotationRecord
	CreatedAt    time.Time
}

// recordable is implemented by annotations that can serialize themselves.
type recordable interface {
	Record() domain.AnnotationRecord
}

// Bridge implements ports.EnvironmentBridge over SQLite.
type Bridge struct {
	db       *sql.DB
	notifier ports.Notifier
	logger   *slog.Logger
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithNotifier sets the notifier returned by Alert.
func WithNotifier(n ports.Notifier) Option {
	return func(b *Bridge) {
		b.notifier = n
	}
}

// WithLogger configures a logger for the Bridge.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string, opts ...Option) (*Bridge, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	b := &Bridge{db: db, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Close closes the database.
func (b *Bridge) Close() error {
	return b.db.Close()
}

// OnLoad records that the session was opened.
func (b *Bridge) OnLoad(ctx context.Context, s ports.Session) {
	if err := b.insert(ctx, s, nil, KindLoad); err != nil {
		b.logger.Warn("failed to record session load", "session_id", s.ID(), "err", err)
	}
}

// SubmitCompletion records a submitted annotation.
func (b *Bridge) SubmitCompletion(ctx context.Context, s ports.Session, a ports.Annotation) error {
	return b.insert(ctx, s, a, KindSubmit)
}

// UpdateCompletion records an updated annotation.
func (b *Bridge) UpdateCompletion(ctx context.Context, s ports.Session, a ports.Annotation) error {
	return b.insert(ctx, s, a, KindUpdate)
}

// SkipTask records a skipped task.
func (b *Bridge) SkipTask(ctx context.Context, s ports.Session) error {
	return b.insert(ctx, s, nil, KindSkip)
}

// SubmitDraft records an autosave draft.
func (b *Bridge) SubmitDraft(ctx context.Context, s ports.Session, a ports.Annotation) error {
	return b.insert(ctx, s, a, KindDraft)
}

// Alert returns the configured notifier, or nil.
func (b *Bridge) Alert() ports.Notifier {
	return b.notifier
}

func (b *Bridge) insert(ctx context.Context, s ports.Session, a ports.Annotation, kind string) error {
	var taskID, annotationID, payload string
	if t := s.Task(); t != nil {
		taskID = t.ID
	}
	if a != nil {
		annotationID = a.ID()
		if r, ok := a.(recordable); ok {
			data, err := json.Marshal(r.Record())
			if err != nil {
				return fmt.Errorf("failed to marshal annotation: %w", err)
			}
			payload = string(data)
		}
	}

	_, err := b.db.ExecContext(ctx,
		`INSERT INTO entries (session_id, task_id, annotation_id, kind, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID(), taskID, annotationID, kind, payload, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
	b.logger.Debug("bridge entry recorded", "session_id", s.ID(), "task_id", taskID, "kind", kind)
	return nil
}

// Entries returns the recorded entries for a task, oldest first.
func (b *Bridge) Entries(ctx context.Context, taskID string) ([]Entry, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, session_id, task_id, annotation_id, kind, payload, created_at
		 FROM entries WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			payload   string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.TaskID, &e.AnnotationID, &e.Kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if payload != "" {
			var rec domain.AnnotationRecord
			if err := json.Unmarshal([]byte(payload), &rec); err != nil {
				return nil, fmt.Errorf("decode entry %d: %w", e.ID, err)
			}
			e.Record = &rec
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestCompletion returns the most recent submitted or updated annotation of a task,
// or domain.ErrTaskNotFound when there is none.
func (b *Bridge) LatestCompletion(ctx context.Context, taskID string) (*domain.AnnotationRecord, error) {
	var payload string
	err := b.db.QueryRowContext(ctx,
		`SELECT payload FROM entries
		 WHERE task_id = ? AND kind IN (?, ?) AND payload != ''
		 ORDER BY id DESC LIMIT 1`, taskID, KindSubmit, KindUpdate).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest completion: %w", err)
	}

	var rec domain.AnnotationRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decode latest completion: %w", err)
	}
	return &rec, nil
}

// Counts returns the number of entries per kind for a task.
func (b *Bridge) Counts(ctx context.Context, taskID string) (map[string]int, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM entries WHERE task_id = ? GROUP BY kind`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
