package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string, startedAt time.Time) *casegen.Session {
	return &casegen.Session{
		ID:        id,
		StartURL:  "https://app.example.com/",
		Strategy:  casegen.StrategyBreadthFirst,
		MaxDepth:  3,
		MaxPages:  50,
		Status:    casegen.StatusPending,
		StartedAt: startedAt,
	}
}

func TestSessionService_CreateSession(t *testing.T) {
	t.Parallel()

	t.Run("stores session", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSessionService(setupTestDB(t))
		ctx := context.Background()
		started := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)

		require.NoError(t, svc.CreateSession(ctx, newSession("s1", started)))

		found, err := svc.FindSessionByID(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com/", found.StartURL)
		assert.Equal(t, casegen.StrategyBreadthFirst, found.Strategy)
		assert.Equal(t, 3, found.MaxDepth)
		assert.Equal(t, 50, found.MaxPages)
		assert.Equal(t, casegen.StatusPending, found.Status)
		assert.True(t, started.Equal(found.StartedAt))
		assert.Nil(t, found.EndedAt)
	})

	t.Run("requires ID", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSessionService(setupTestDB(t))

		err := svc.CreateSession(context.Background(), newSession("", time.Now()))
		assert.Equal(t, casegen.EINVALID, casegen.ErrorCode(err))
	})

	t.Run("validates session", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSessionService(setupTestDB(t))
		s := newSession("s1", time.Now())
		s.StartURL = "ftp://example.com"

		err := svc.CreateSession(context.Background(), s)
		assert.Equal(t, casegen.EINVALID, casegen.ErrorCode(err))
	})

	t.Run("rejects duplicate ID", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSessionService(setupTestDB(t))
		ctx := context.Background()
		require.NoError(t, svc.CreateSession(ctx, newSession("s1", time.Now())))

		err := svc.CreateSession(ctx, newSession("s1", time.Now()))
		assert.Equal(t, casegen.ECONFLICT, casegen.ErrorCode(err))
	})
}

func TestSessionService_UpdateSession(t *testing.T) {
	t.Parallel()

	t.Run("overwrites snapshot", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSessionService(setupTestDB(t))
		ctx := context.Background()
		s := newSession("s1", time.Now())
		require.NoError(t, svc.CreateSession(ctx, s))

		ended := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
		s.Status = casegen.StatusError
		s.PagesExplored = 12
		s.PagesFailed = 2
		s.ElementsFound = 140
		s.CasesGenerated = 9
		s.EndedAt = &ended
		s.LastError = "acquire renderer: chrome not found"
		require.NoError(t, svc.UpdateSession(ctx, s))

		found, err := svc.FindSessionByID(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, casegen.StatusError, found.Status)
		assert.Equal(t, 12, found.PagesExplored)
		assert.Equal(t, 2, found.PagesFailed)
		assert.Equal(t, 140, found.ElementsFound)
		assert.Equal(t, 9, found.CasesGenerated)
		require.NotNil(t, found.EndedAt)
		assert.True(t, ended.Equal(*found.EndedAt))
		assert.Equal(t, "acquire renderer: chrome not found", found.LastError)
	})

	t.Run("returns not found for unknown session", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSessionService(setupTestDB(t))

		err := svc.UpdateSession(context.Background(), newSession("missing", time.Now()))
		assert.Equal(t, casegen.ENOTFOUND, casegen.ErrorCode(err))
	})
}

func TestSessionService_FindSessionByID(t *testing.T) {
	t.Parallel()

	svc := sqlite.NewSessionService(setupTestDB(t))

	_, err := svc.FindSessionByID(context.Background(), "missing")
	assert.Equal(t, casegen.ENOTFOUND, casegen.ErrorCode(err))
}

func TestSessionService_FindSessions(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *sqlite.SessionService {
		t.Helper()
		svc := sqlite.NewSessionService(setupTestDB(t))
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := range 4 {
			s := newSession(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Minute))
			if i%2 == 1 {
				s.Status = casegen.StatusCompleted
			}
			require.NoError(t, svc.CreateSession(ctx, s))
		}
		return svc
	}

	ids := func(sessions []*casegen.Session) []string {
		var out []string
		for _, s := range sessions {
			out = append(out, s.ID)
		}
		return out
	}

	t.Run("returns newest first", func(t *testing.T) {
		t.Parallel()

		sessions, err := setup(t).FindSessions(context.Background(), casegen.SessionFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"s3", "s2", "s1", "s0"}, ids(sessions))
	})

	t.Run("filters by status", func(t *testing.T) {
		t.Parallel()

		status := casegen.StatusCompleted
		sessions, err := setup(t).FindSessions(context.Background(), casegen.SessionFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, []string{"s3", "s1"}, ids(sessions))
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		svc := setup(t)
		ctx := context.Background()

		page, err := svc.FindSessions(ctx, casegen.SessionFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"s2", "s1"}, ids(page))

		rest, err := svc.FindSessions(ctx, casegen.SessionFilter{Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"s0"}, ids(rest))
	})
}
