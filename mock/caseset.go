package mock

import (
	"context"

	"github.com/fwojciec/casegen"
)

var _ casegen.CaseSetService = (*CaseSetService)(nil)

// CaseSetService is a mock implementation of casegen.CaseSetService.
type CaseSetService struct {
	SaveCaseSetFn func(ctx context.Context, set *casegen.CaseSet) error
	FindCaseSetFn func(ctx context.Context, sessionID string) (*casegen.CaseSet, error)
}

func (s *CaseSetService) SaveCaseSet(ctx context.Context, set *casegen.CaseSet) error {
	return s.SaveCaseSetFn(ctx, set)
}

func (s *CaseSetService) FindCaseSet(ctx context.Context, sessionID string) (*casegen.CaseSet, error) {
	return s.FindCaseSetFn(ctx, sessionID)
}

var _ casegen.ReportWriter = (*ReportWriter)(nil)

// ReportWriter is a mock implementation of casegen.ReportWriter.
type ReportWriter struct {
	WriteFn func(ctx context.Context, name string, data []byte) (string, error)
}

func (w *ReportWriter) Write(ctx context.Context, name string, data []byte) (string, error) {
	return w.WriteFn(ctx, name, data)
}
