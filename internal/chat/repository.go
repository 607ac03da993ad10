package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LogEntry is one stored exchange.
type LogEntry struct {
	ID         int64     `json:"id"`
	TS         time.Time `json:"ts"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AIProvider string    `json:"ai_provider"`
	Page       string    `json:"page"`
}

// NewLogEntry is the row written after a successful completion.
type NewLogEntry struct {
	Session    string
	Question   string
	Answer     string
	AIProvider string
	UserAgent  string
	Page       string
}

// Repository reads and writes the chat_log table.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) InsertLog(ctx context.Context, e NewLogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_log (ts, session, question, answer, ai_provider, user_agent, page)
		VALUES (now(), $1, $2, $3, $4, $5, $6)`,
		e.Session, e.Question, e.Answer, e.AIProvider, e.UserAgent, e.Page,
	)
	if err != nil {
		return fmt.Errorf("insert chat log: %w", err)
	}
	return nil
}

// History returns the newest entries of session, newest first.
func (r *Repository) History(ctx context.Context, session string, limit int) ([]LogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, ts, COALESCE(question, ''), COALESCE(answer, ''), COALESCE(ai_provider, ''), COALESCE(page, '')
		FROM chat_log
		WHERE session = $1
		ORDER BY id DESC
		LIMIT $2`, session, limit)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	defer rows.Close()

	items := make([]LogEntry, 0, limit)
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.TS, &e.Question, &e.Answer, &e.AIProvider, &e.Page); err != nil {
			return nil, fmt.Errorf("scan chat log: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	return items, nil
}
