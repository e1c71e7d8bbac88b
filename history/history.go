// CLAUDE:SUMMARY Append-only SQLite journal of annotation mutations (create/edit/delete/clear) with async batched writes, per-page queries and retention cleanup.
// Package history keeps a journal of every annotation mutation so a review
// can see who changed what, through which surface, and when. Writes are
// queued and flushed in batches; Record never blocks on the database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/idgen"
	"github.com/hazyhaar/annotator/kit"
	"github.com/hazyhaar/annotator/session"
)

// Schema is the journal DDL, applied with dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS annotation_history (
    entry_id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    page_key TEXT NOT NULL,
    op TEXT NOT NULL,
    annotation_id TEXT NOT NULL,
    selector TEXT,
    comment TEXT,
    transport TEXT,
    request_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_history_page_time ON annotation_history(page_key, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_history_annotation ON annotation_history(annotation_id);
`

// Entry is one journalled mutation.
type Entry struct {
	EntryID      string    `json:"entry_id"`
	Timestamp    time.Time `json:"timestamp"`
	PageKey      string    `json:"page_key"`
	Op           string    `json:"op"`
	AnnotationID string    `json:"annotation_id"`
	Selector     string    `json:"selector,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	Transport    string    `json:"transport,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Filter narrows Query. Empty fields match everything.
type Filter struct {
	PageKey      string
	AnnotationID string
	Since        time.Time
	Limit        int // default 100
}

// Journal writes entries for one page.
type Journal struct {
	db      *sql.DB
	pageKey string
	newID   idgen.Generator
	now     func() time.Time
	logger  *slog.Logger

	ch   chan Entry
	stop chan struct{}
	done chan struct{}
}

// Option configures a Journal.
type Option func(*Journal)

// WithIDGenerator overrides the entry id generator.
func WithIDGenerator(gen idgen.Generator) Option { return func(j *Journal) { j.newID = gen } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(j *Journal) { j.now = now } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(j *Journal) { j.logger = l } }

// New starts a journal for pageURL on db, which must already carry Schema.
// bufferSize bounds the queue; when it is full Record falls back to a
// synchronous insert.
func New(db *sql.DB, pageURL string, bufferSize int, opts ...Option) *Journal {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	j := &Journal{
		db:      db,
		pageKey: session.Key(pageURL),
		newID:   idgen.Prefixed("hist_", idgen.UUIDv7()),
		now:     time.Now,
		logger:  slog.Default(),
		ch:      make(chan Entry, bufferSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(j)
	}
	go j.flushLoop()
	return j
}

// Record queues a mutation. It satisfies annotator.Journal.
func (j *Journal) Record(ctx context.Context, op string, a annotation.Annotation) {
	e := Entry{
		EntryID:      j.newID(),
		Timestamp:    j.now(),
		PageKey:      j.pageKey,
		Op:           op,
		AnnotationID: a.ID,
		Selector:     a.Selector,
		Comment:      a.Comment,
		Transport:    kit.GetTransport(ctx),
		RequestID:    kit.GetRequestID(ctx),
	}
	select {
	case j.ch <- e:
	default:
		j.logger.Warn("history: buffer full, sync insert", "op", op, "annotation", a.ID)
		if err := insert(context.Background(), j.db, e); err != nil {
			j.logger.Error("history: sync insert failed", "error", err)
		}
	}
}

// Close flushes queued entries and stops the writer.
func (j *Journal) Close() error {
	close(j.stop)
	<-j.done
	return nil
}

// Query returns entries newest first.
func Query(ctx context.Context, db *sql.DB, f Filter) ([]Entry, error) {
	q := `SELECT entry_id, timestamp, page_key, op, annotation_id,
		COALESCE(selector, ''), COALESCE(comment, ''), COALESCE(transport, ''), COALESCE(request_id, '')
		FROM annotation_history WHERE 1=1`
	var args []any
	if f.PageKey != "" {
		q += " AND page_key = ?"
		args = append(args, f.PageKey)
	}
	if f.AnnotationID != "" {
		q += " AND annotation_id = ?"
		args = append(args, f.AnnotationID)
	}
	if !f.Since.IsZero() {
		q += " AND timestamp >= ?"
		args = append(args, f.Since.UnixMilli())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " ORDER BY timestamp DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.EntryID, &ts, &e.PageKey, &e.Op, &e.AnnotationID,
			&e.Selector, &e.Comment, &e.Transport, &e.RequestID); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Cleanup deletes entries older than retention.
func Cleanup(ctx context.Context, db *sql.DB, retention time.Duration) (int64, error) {
	threshold := time.Now().Add(-retention).UnixMilli()
	res, err := db.ExecContext(ctx, "DELETE FROM annotation_history WHERE timestamp < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("history: cleanup: %w", err)
	}
	return res.RowsAffected()
}

func (j *Journal) flushLoop() {
	defer close(j.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	batch := make([]Entry, 0, 64)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := insertBatch(ctx, j.db, batch); err != nil {
			j.logger.Error("history: flush failed", "entries", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-j.stop:
			for {
				select {
				case e := <-j.ch:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		case e := <-j.ch:
			batch = append(batch, e)
			if len(batch) >= 64 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

const insertSQL = `INSERT INTO annotation_history
	(entry_id, timestamp, page_key, op, annotation_id, selector, comment, transport, request_id)
	VALUES (?,?,?,?,?,?,?,?,?)`

func insert(ctx context.Context, db *sql.DB, e Entry) error {
	_, err := db.ExecContext(ctx, insertSQL, e.EntryID, e.Timestamp.UnixMilli(), e.PageKey, e.Op,
		e.AnnotationID, e.Selector, e.Comment, e.Transport, e.RequestID)
	return err
}

func insertBatch(ctx context.Context, db *sql.DB, batch []Entry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, e := range batch {
		if _, err := stmt.ExecContext(ctx, e.EntryID, e.Timestamp.UnixMilli(), e.PageKey, e.Op,
			e.AnnotationID, e.Selector, e.Comment, e.Transport, e.RequestID); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", e.EntryID, err)
		}
	}
	return tx.Commit()
}
