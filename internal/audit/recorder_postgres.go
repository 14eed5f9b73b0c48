package audit

import (
	"database/sql"
	"fmt"

	"refhub/ref-edge/internal/gate"
)

// PostgresRecorder writes decision records to a gate_decisions table.
type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) (*PostgresRecorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	r := &PostgresRecorder{db: db}
	if err := r.ensureSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRecorder) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS gate_decisions (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	path TEXT NOT NULL,
	class TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	decision TEXT NOT NULL,
	target TEXT NOT NULL DEFAULT ''
)`
	if _, err := r.db.Exec(q); err != nil {
		return fmt.Errorf("ensure gate_decisions schema: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(path string, class gate.RouteClass, subject, role string, decision gate.Decision) error {
	const q = `
INSERT INTO gate_decisions (path, class, subject, role, decision, target)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.Exec(q, path, string(class), subject, role, string(decision.Action), decision.Target); err != nil {
		return fmt.Errorf("insert gate decision: %w", err)
	}
	return nil
}
