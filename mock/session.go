package mock

import (
	"context"

	"github.com/fwojciec/casegen"
)

var _ casegen.SessionService = (*SessionService)(nil)

// SessionService is a mock implementation of casegen.SessionService.
type SessionService struct {
	CreateSessionFn   func(ctx context.Context, session *casegen.Session) error
	UpdateSessionFn   func(ctx context.Context, session *casegen.Session) error
	FindSessionByIDFn func(ctx context.Context, id string) (*casegen.Session, error)
	FindSessionsFn    func(ctx context.Context, filter casegen.SessionFilter) ([]*casegen.Session, error)
}

func (s *SessionService) CreateSession(ctx context.Context, session *casegen.Session) error {
	return s.CreateSessionFn(ctx, session)
}

func (s *SessionService) UpdateSession(ctx context.Context, session *casegen.Session) error {
	return s.UpdateSessionFn(ctx, session)
}

func (s *SessionService) FindSessionByID(ctx context.Context, id string) (*casegen.Session, error) {
	return s.FindSessionByIDFn(ctx, id)
}

func (s *SessionService) FindSessions(ctx context.Context, filter casegen.SessionFilter) ([]*casegen.Session, error) {
	return s.FindSessionsFn(ctx, filter)
}
