package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/repository"
	"github.com/utafrali/discovery/pkg/pagination"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 20
)

// HistoryService exposes an actor's own search history.
type HistoryService struct {
	repo   repository.HistoryRepository
	logger *slog.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(repo repository.HistoryRepository, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		logger: logger,
	}
}

// List returns one page of the actor's history, newest first.
func (s *HistoryService) List(ctx context.Context, actor string, params pagination.Params) (pagination.Result[domain.SearchHistoryEntry], error) {
	params = pagination.New(params.Page, params.Limit, pagination.DefaultLimit, pagination.MaxLimit)

	entries, total, err := s.repo.ListByUser(ctx, actor, params.Offset, params.Limit)
	if err != nil {
		return pagination.Result[domain.SearchHistoryEntry]{}, fmt.Errorf("list history: %w", err)
	}
	return pagination.NewResult(entries, total, params), nil
}

// Recent returns the actor's distinct recent queries, keeping the latest
// occurrence of each.
func (s *HistoryService) Recent(ctx context.Context, actor string, limit int) ([]domain.SearchHistoryEntry, error) {
	if limit < 1 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	entries, err := s.repo.RecentUnique(ctx, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	if entries == nil {
		entries = []domain.SearchHistoryEntry{}
	}
	return entries, nil
}

// Clear deletes the actor's whole history and returns how many entries
// were removed.
func (s *HistoryService) Clear(ctx context.Context, actor string) (int, error) {
	n, err := s.repo.DeleteByUser(ctx, actor)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}

	s.logger.InfoContext(ctx, "search history cleared", slog.Int("deleted", n))
	return n, nil
}

// Delete removes one entry of the actor. It reports false both when the
// entry does not exist and when it belongs to someone else, so callers
// cannot tell the two apart.
func (s *HistoryService) Delete(ctx context.Context, actor, id string) (bool, error) {
	outcome, err := s.repo.DeleteByID(ctx, actor, id)
	if err != nil {
		return false, fmt.Errorf("delete history entry: %w", err)
	}

	if outcome == domain.DeleteOutcomeForeign {
		s.logger.WarnContext(ctx, "delete of foreign history entry refused",
			slog.String("entry_id", id),
		)
	}
	return outcome == domain.DeleteOutcomeDeleted, nil
}
