package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Service applies task validation rules on top of the repository.
type Service struct {
	repo Repository
}

// NewService wires a Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, completed *bool) ([]Task, error) {
	return s.repo.List(ctx, completed)
}

func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	if id <= 0 {
		return Task{}, fmt.Errorf("%w: invalid task id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, description string) (Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Task{}, fmt.Errorf("%w: task description required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, description)
}

func (s *Service) UpdateDescription(ctx context.Context, id int64, description string) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid task id", httpx.ErrValidation)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("%w: task description required", httpx.ErrValidation)
	}
	return s.repo.UpdateDescription(ctx, id, description)
}

func (s *Service) Complete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid task id", httpx.ErrValidation)
	}
	return s.repo.SetCompletion(ctx, id, true)
}

func (s *Service) Reopen(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid task id", httpx.ErrValidation)
	}
	return s.repo.SetCompletion(ctx, id, false)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid task id", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
