package sqlite

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

type LeadRepo struct {
	db *sql.DB
}

func NewLeadRepo(dsn string) (*LeadRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateLeads(db); err != nil {
		return nil, err
	}
	return &LeadRepo{db: db}, nil
}

func migrateLeads(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS leads (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    user_id INTEGER NOT NULL,
    username TEXT,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_user_id ON leads(user_id);
`)
	return err
}

func (r *LeadRepo) SaveLead(lead domain.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(`INSERT INTO leads(id, name, email, user_id, username, status, created_at) VALUES(?,?,?,?,?,?,?)`,
		lead.ID, lead.Name, lead.Email, lead.UserID, lead.Username, lead.Status, lead.CreatedAt)
	return err
}

func (r *LeadRepo) ListLeads() ([]domain.Lead, error) {
	rows, err := r.db.Query(`SELECT id, name, email, user_id, username, status, created_at FROM leads ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	leads := make([]domain.Lead, 0, 64)
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.UserID, &l.Username, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (r *LeadRepo) HasLeadFor(userID int64) (bool, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(1) FROM leads WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
