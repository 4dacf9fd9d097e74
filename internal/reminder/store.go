package reminder

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openclaw/openclaw/internal/channel"
)

// Record is one live reminder. A row exists from creation until the
// reminder fires (one-shot) or is cancelled.
type Record struct {
	ID        string
	UserID    string
	ChannelID string
	ThreadID  string
	Source    channel.Type
	Content   string
	RemindAt  time.Time // zero for recurring
	CronExpr  string    // empty for one-shot
	CreatedAt time.Time
}

// Recurring reports whether this reminder repeats on a cron schedule.
func (r Record) Recurring() bool { return r.CronExpr != "" }

// Store persists reminders in SQLite so pending ones can be re-armed after
// a restart.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open reminder database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate reminder database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		thread_id TEXT NOT NULL DEFAULT '',
		channel_type TEXT NOT NULL,
		content TEXT NOT NULL,
		remind_at TEXT NOT NULL DEFAULT '',
		cron_expr TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Put inserts or replaces a reminder row.
func (s *Store) Put(r Record) error {
	remindAt := ""
	if !r.RemindAt.IsZero() {
		remindAt = r.RemindAt.Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO reminders
		(id, user_id, channel_id, thread_id, channel_type, content, remind_at, cron_expr, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ChannelID, r.ThreadID, string(r.Source), r.Content,
		remindAt, r.CronExpr, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// Delete removes a reminder row.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// List returns all live reminders.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, channel_id, thread_id, channel_type, content, remind_at, cron_expr, created_at
		FROM reminders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var source, remindAt, createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.ChannelID, &r.ThreadID, &source,
			&r.Content, &remindAt, &r.CronExpr, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		r.Source = channel.Type(source)
		if remindAt != "" {
			if t, err := time.Parse(time.RFC3339, remindAt); err == nil {
				r.RemindAt = t
			}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
