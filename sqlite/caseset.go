package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ casegen.CaseSetService = (*CaseSetService)(nil)

// CaseSetService implements casegen.CaseSetService using SQLite.
// Cases and coverage are stored as JSON.
type CaseSetService struct {
	db *DB
}

// NewCaseSetService creates a new CaseSetService.
func NewCaseSetService(db *DB) *CaseSetService {
	return &CaseSetService{db: db}
}

// SaveCaseSet stores set, replacing any previous set for the same session.
// Returns ENOTFOUND if the session does not exist.
func (s *CaseSetService) SaveCaseSet(ctx context.Context, set *casegen.CaseSet) error {
	if set.SessionID == "" {
		return casegen.Errorf(casegen.EINVALID, "session ID required")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ?", set.SessionID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return casegen.Errorf(casegen.ENOTFOUND, "session not found")
	}

	if set.ID == "" {
		set.ID = uuid.New().String()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}

	cases := set.Cases
	if cases == nil {
		cases = []*casegen.TestCase{}
	}
	casesJSON, err := json.Marshal(cases)
	if err != nil {
		return fmt.Errorf("encode cases: %w", err)
	}
	coverageJSON, err := json.Marshal(set.Coverage)
	if err != nil {
		return fmt.Errorf("encode coverage: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO case_sets (id, session_id, cases, coverage, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			id = excluded.id,
			cases = excluded.cases,
			coverage = excluded.coverage,
			created_at = excluded.created_at
	`, set.ID, set.SessionID, string(casesJSON), string(coverageJSON), formatTime(set.CreatedAt))
	return err
}

// FindCaseSet returns the case set stored for a session.
func (s *CaseSetService) FindCaseSet(ctx context.Context, sessionID string) (*casegen.CaseSet, error) {
	var set casegen.CaseSet
	var casesJSON, coverageJSON, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, cases, coverage, created_at
		FROM case_sets
		WHERE session_id = ?
	`, sessionID).Scan(&set.ID, &set.SessionID, &casesJSON, &coverageJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, casegen.Errorf(casegen.ENOTFOUND, "case set not found")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(casesJSON), &set.Cases); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	if err := json.Unmarshal([]byte(coverageJSON), &set.Coverage); err != nil {
		return nil, fmt.Errorf("decode coverage: %w", err)
	}
	set.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &set, nil
}
