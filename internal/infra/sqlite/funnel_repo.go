package sqlite

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/usecase"
)

type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(dsn string) (*FunnelRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateFunnel(db); err != nil {
		return nil, err
	}
	return &FunnelRepo{db: db}, nil
}

func migrateFunnel(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS funnel_hits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_id INTEGER NOT NULL,
    step TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_step ON funnel_hits(step);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_chat_step ON funnel_hits(chat_id, step);
`)
	return err
}

func (r *FunnelRepo) Hit(step usecase.Step, chatID int64) error {
	_, err := r.db.Exec(`INSERT INTO funnel_hits(chat_id, step, created_at) VALUES(?,?,?)`, chatID, string(step), time.Now())
	return err
}

// Counts reports distinct users per step; a retry inside one step counts
// once.
func (r *FunnelRepo) Counts() map[usecase.Step]int {
	rows, err := r.db.Query(`SELECT step, COUNT(DISTINCT chat_id) FROM funnel_hits GROUP BY step`)
	if err != nil {
		return map[usecase.Step]int{}
	}
	defer rows.Close()
	out := map[usecase.Step]int{}
	for rows.Next() {
		var step string
		var cnt int
		if err := rows.Scan(&step, &cnt); err == nil {
			out[usecase.Step(step)] = cnt
		}
	}
	return out
}
