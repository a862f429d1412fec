package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fwojciec/casegen"
)

// Compile-time interface verification.
var _ casegen.SessionService = (*SessionService)(nil)

// SessionService implements casegen.SessionService using SQLite.
type SessionService struct {
	db *DB
}

// NewSessionService creates a new SessionService.
func NewSessionService(db *DB) *SessionService {
	return &SessionService{db: db}
}

const sessionColumns = `id, start_url, strategy, max_depth, max_pages, status, current_url,
	pages_explored, pages_failed, elements_found, cases_generated, started_at, ended_at, last_error`

// CreateSession stores a new session record.
// Returns ECONFLICT if a session with the same ID exists.
func (s *SessionService) CreateSession(ctx context.Context, session *casegen.Session) error {
	if session.ID == "" {
		return casegen.Errorf(casegen.EINVALID, "session ID required")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	exists, err := s.exists(ctx, session.ID)
	if err != nil {
		return err
	}
	if exists {
		return casegen.Errorf(casegen.ECONFLICT, "session %q already exists", session.ID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionArgs(session)...)
	return err
}

// UpdateSession overwrites the stored record with the given snapshot.
func (s *SessionService) UpdateSession(ctx context.Context, session *casegen.Session) error {
	args := sessionArgs(session)
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET start_url = ?, strategy = ?, max_depth = ?, max_pages = ?, status = ?, current_url = ?,
			pages_explored = ?, pages_failed = ?, elements_found = ?, cases_generated = ?,
			started_at = ?, ended_at = ?, last_error = ?
		WHERE id = ?
	`, append(args[1:], session.ID)...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return casegen.Errorf(casegen.ENOTFOUND, "session not found")
	}
	return nil
}

// FindSessionByID retrieves a session by ID.
func (s *SessionService) FindSessionByID(ctx context.Context, id string) (*casegen.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, casegen.Errorf(casegen.ENOTFOUND, "session not found")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// FindSessions retrieves sessions matching the filter, newest first.
func (s *SessionService) FindSessions(ctx context.Context, filter casegen.SessionFilter) ([]*casegen.Session, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + sessionColumns + " FROM sessions WHERE 1=1")

	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*casegen.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SessionService) exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func sessionArgs(session *casegen.Session) []any {
	var endedAt any
	if session.EndedAt != nil {
		endedAt = formatTime(*session.EndedAt)
	}
	return []any{
		session.ID, session.StartURL, string(session.Strategy), session.MaxDepth, session.MaxPages,
		string(session.Status), session.CurrentURL,
		session.PagesExplored, session.PagesFailed, session.ElementsFound, session.CasesGenerated,
		formatTime(session.StartedAt), endedAt, session.LastError,
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*casegen.Session, error) {
	var session casegen.Session
	var strategy, status, startedAt string
	var endedAt sql.NullString

	if err := row.Scan(&session.ID, &session.StartURL, &strategy, &session.MaxDepth, &session.MaxPages,
		&status, &session.CurrentURL,
		&session.PagesExplored, &session.PagesFailed, &session.ElementsFound, &session.CasesGenerated,
		&startedAt, &endedAt, &session.LastError); err != nil {
		return nil, err
	}
	session.Strategy = casegen.StrategyName(strategy)
	session.Status = casegen.SessionStatus(status)

	var err error
	session.StartedAt, err = parseRFC3339(startedAt, "started_at")
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t, err := parseRFC3339(endedAt.String, "ended_at")
		if err != nil {
			return nil, err
		}
		session.EndedAt = &t
	}
	return &session, nil
}
